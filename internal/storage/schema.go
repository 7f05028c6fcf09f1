package storage

const schema = `
-- Every question submitted and the answer that was shown for it. Rows are never updated.
CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    subject TEXT NOT NULL,
    question_text TEXT NOT NULL,
    answer_text TEXT NOT NULL,
    is_correct INTEGER NOT NULL DEFAULT 1,
    difficulty INTEGER NOT NULL DEFAULT 3 CHECK (difficulty BETWEEN 1 AND 5),
    fingerprint TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_fingerprint ON questions(fingerprint);
CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at DESC);

-- One row per calendar date, upserted on every question insert.
CREATE TABLE IF NOT EXISTS daily_stats (
    date TEXT PRIMARY KEY,
    questions_count INTEGER NOT NULL DEFAULT 0,
    correct_count INTEGER NOT NULL DEFAULT 0,
    CHECK (correct_count <= questions_count)
);

-- Small key/value settings such as the API key and the theme.
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
