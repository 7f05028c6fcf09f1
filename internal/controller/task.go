package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/studydesk/internal/answer"
	"github.com/conorfennell/studydesk/internal/domain"
)

// Completion is the single message a Task delivers back to the presentation loop.
type Completion struct {
	TaskID    string
	Subject   domain.Subject
	Question  string
	IsCorrect bool
	Result    answer.Result
	// Expired is set when the watchdog gave up before the provider answered.
	Expired bool
}

// Task is one in-flight question. It runs on its own goroutine and is never reused.
type Task struct {
	ID       string
	Subject  domain.Subject
	Question string
	done     chan Completion
}

// Done delivers exactly one Completion once the provider returns.
func (t *Task) Done() <-chan Completion { return t.done }

// Wait blocks for the completion, giving up after watchdog (when positive) or
// when ctx ends. Giving up yields an expired completion carrying a TimeoutError.
func (t *Task) Wait(ctx context.Context, watchdog time.Duration) Completion {
	var timeout <-chan time.Time
	if watchdog > 0 {
		timer := time.NewTimer(watchdog)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case comp := <-t.done:
		return comp
	case <-timeout:
		return t.expired(watchdog.String())
	case <-ctx.Done():
		return t.expired(ctx.Err().Error())
	}
}

func (t *Task) expired(after string) Completion {
	return Completion{
		TaskID:   t.ID,
		Subject:  t.Subject,
		Question: t.Question,
		Result:   answer.Result{Err: &domain.TimeoutError{After: after}},
		Expired:  true,
	}
}

// Watchdog is the configured limit for Task.Wait.
func (c *Controller) Watchdog() time.Duration { return c.watchdog }

// Submission carries a question together with the subject and mark it is
// asked under, for callers that choose both per request.
type Submission struct {
	Subject     domain.Subject
	Question    string
	MarkCorrect bool
}

// Submit starts answering question under the selected subject. Empty input
// returns domain.ErrEmptyQuestion and a pending question returns ErrBusy;
// neither changes state.
func (c *Controller) Submit(ctx context.Context, question string) (*Task, error) {
	return c.submit(ctx, question, nil)
}

// SubmitWith is Submit with the subject and mark applied in the same step.
// A rejected submission leaves the selected subject and mark untouched.
func (c *Controller) SubmitWith(ctx context.Context, sub Submission) (*Task, error) {
	if !sub.Subject.Valid() {
		return nil, &domain.ValidationError{Field: "subject", Reason: "unknown subject " + string(sub.Subject)}
	}
	return c.submit(ctx, sub.Question, &sub)
}

func (c *Controller) submit(ctx context.Context, question string, sub *Submission) (*Task, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.state.Phase == AwaitingAnswer {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if sub != nil {
		c.state.Subject = sub.Subject
		c.state.MarkCorrect = sub.MarkCorrect
	}
	task := &Task{
		ID:       uuid.NewString(),
		Subject:  c.state.Subject,
		Question: question,
		done:     make(chan Completion, 1),
	}
	isCorrect := c.state.MarkCorrect
	c.state.Phase = AwaitingAnswer
	c.state.Output = ThinkingText
	c.state.OutputIsError = false
	c.state.LastError = nil
	c.state.pending = task.ID
	c.mu.Unlock()

	c.logger.Info("Question submitted", "task", task.ID, "subject", task.Subject)

	go func() {
		res := c.asker.Ask(ctx, task.Subject, task.Question)
		task.done <- Completion{
			TaskID:    task.ID,
			Subject:   task.Subject,
			Question:  task.Question,
			IsCorrect: isCorrect,
			Result:    res,
		}
	}()

	return task, nil
}

// Complete applies a completion on the presentation loop: it shows the answer,
// returns to Idle, records the exchange and refreshes today's statistics.
// An expired completion resets to Idle without recording and returns its
// TimeoutError. Completions of tasks that are no longer pending are ignored.
func (c *Controller) Complete(ctx context.Context, comp Completion) error {
	c.mu.Lock()
	if c.state.Phase != AwaitingAnswer || c.state.pending != comp.TaskID {
		c.mu.Unlock()
		c.logger.Warn("Ignoring stale completion", "task", comp.TaskID)
		return nil
	}
	c.state.Phase = Idle
	c.state.pending = ""
	c.state.Output = comp.Result.Display()
	c.state.OutputIsError = !comp.Result.OK()
	c.state.MarkCorrect = true
	c.mu.Unlock()

	if comp.Expired {
		c.logger.Warn("Question timed out", "task", comp.TaskID, "error", comp.Result.Err)
		return c.fail(comp.Result.Err)
	}

	if !comp.Result.OK() {
		c.logger.Warn("Answer provider failed", "task", comp.TaskID, "error", comp.Result.Err)
	}

	if _, err := c.store.RecordAnswer(ctx, comp.Subject, comp.Question, comp.Result.Display(), comp.IsCorrect); err != nil {
		return c.fail(err)
	}
	c.logger.Info("Answer recorded", "task", comp.TaskID, "subject", comp.Subject, "correct", comp.IsCorrect)

	return c.RefreshStats(ctx)
}

// Ask runs a whole submission synchronously: Submit, wait under the
// watchdog, then Complete. For callers that have no UI loop of their own.
func (c *Controller) Ask(ctx context.Context, question string) (Completion, error) {
	task, err := c.Submit(ctx, question)
	return c.run(ctx, task, err)
}

// AskWith is Ask for a Submission.
func (c *Controller) AskWith(ctx context.Context, sub Submission) (Completion, error) {
	task, err := c.SubmitWith(ctx, sub)
	return c.run(ctx, task, err)
}

func (c *Controller) run(ctx context.Context, task *Task, err error) (Completion, error) {
	if err != nil {
		return Completion{}, err
	}
	comp := task.Wait(ctx, c.watchdog)
	if err := c.Complete(ctx, comp); err != nil {
		var terr *domain.TimeoutError
		if errors.As(err, &terr) {
			return comp, nil
		}
		return comp, err
	}
	return comp, nil
}
