package main

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrTaskNotPending = errors.New("task is not pending")
	ErrNoRecruiter    = errors.New("no active recruiter in the crew")
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// HireTask is one personnel search. Pending tasks wait in a FIFO queue
// behind the recruiter; exactly one task per game is in progress at a
// time. SearchDays and FinalSalary are fixed at creation, so a queued
// task keeps the terms it was rolled with.
type HireTask struct {
	ID             int64       `json:"id"`
	Position       string      `json:"position"`
	Experience     Experience  `json:"experience"`
	Status         TaskStatus  `json:"status"`
	QueuePosition  int         `json:"queue_position,omitempty"`
	SearchDays     int         `json:"search_days"`
	BaseSalary     int         `json:"base_salary"`
	FinalSalary    int         `json:"final_salary"`
	HireThreshold  int         `json:"hire_threshold"`
	CreatedDate    GameDate    `json:"created_date"`
	StartedDate    GameDate    `json:"started_date,omitzero"`
	CompletionDate GameDate    `json:"completion_date,omitzero"`
	FinishedDate   GameDate    `json:"finished_date,omitzero"`
	Result         *HireResult `json:"result,omitempty"`
}

// HireResult is the frozen record of a task's resolution roll.
type HireResult struct {
	Dice          []int `json:"dice"`
	ModExperience int   `json:"mod_experience"`
	ModMorale     int   `json:"mod_morale"`
	ModReputation int   `json:"mod_reputation"`
	Total         int   `json:"total"`
	Threshold     int   `json:"threshold"`
	Success       bool  `json:"success"`
	NewEmployeeID int64 `json:"new_employee_id,omitempty"`
}

// HireOutcome is the advance-time report for a resolved search.
type HireOutcome struct {
	TaskID         int64           `json:"task_id"`
	Position       string          `json:"position"`
	Result         *HireResult     `json:"result,omitempty"`
	NewEmployee    *Employee       `json:"new_employee,omitempty"`
	RecruiterStats RollStatsResult `json:"recruiter_stats"`
	NextTaskID     int64           `json:"next_task_id,omitempty"`
	Messages       []string        `json:"messages"`
}

func (g *Game) taskByID(id int64) *HireTask {
	for _, t := range g.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// pendingTasks returns the queue in position order.
func (g *Game) pendingTasks() []*HireTask {
	out := []*HireTask{}
	for _, t := range g.Tasks {
		if t.Status == TaskPending {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QueuePosition < out[j].QueuePosition
	})
	return out
}

// TaskBoard groups a game's hire tasks the way the UI shows them: the
// running search, the waiting queue in order, and the history.
type TaskBoard struct {
	Current  *HireTask   `json:"current"`
	Pending  []*HireTask `json:"pending"`
	Finished []*HireTask `json:"finished"`
}

func (g *Game) taskBoard() TaskBoard {
	board := TaskBoard{Pending: g.pendingTasks(), Finished: []*HireTask{}}
	for _, t := range g.Tasks {
		switch t.Status {
		case TaskInProgress:
			board.Current = t
		case TaskCompleted, TaskFailed:
			board.Finished = append(board.Finished, t)
		}
	}
	return board
}

func (g *Game) inProgressTask() *HireTask {
	for _, t := range g.Tasks {
		if t.Status == TaskInProgress {
			return t
		}
	}
	return nil
}

// renumberPendingLocked rewrites queue positions to 1..n after any
// queue mutation. In-progress and finished tasks carry position 0.
func (g *Game) renumberPendingLocked() {
	for i, t := range g.pendingTasks() {
		t.QueuePosition = i + 1
	}
}

// startHireSearchLocked rolls the search duration for a new hire task
// and either starts it immediately or queues it behind the recruiter's
// current search. Terms (days, salary, threshold) are locked in now.
func (s *Store) startHireSearchLocked(g *Game, position string, exp Experience, manualDice string) (*HireTask, error) {
	if g.Bankrupt {
		return nil, ErrGameOver
	}
	if !g.SetupComplete {
		return nil, ErrSetupIncomplete
	}
	if g.CurrentPlanet == nil {
		return nil, ErrInvalidLocation
	}
	entry := s.reference.entry(position)
	if entry == nil {
		return nil, ErrPositionUnavailable
	}
	offered := availablePositions(s.reference.Positions, *g.CurrentPlanet)
	found := false
	for _, e := range offered {
		if e.Position == position {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrPositionUnavailable
	}
	recruiter := g.activeRecruiter()
	if recruiter == nil {
		return nil, ErrNoRecruiter
	}

	formula, err := parseDiceFormula(entry.SearchDice)
	if err != nil {
		return nil, err
	}
	base, _, err := formula.rollBase(s.dice, manualDice)
	if err != nil {
		return nil, err
	}
	threshold, err := parseHireThreshold(entry.HireThreshold)
	if err != nil {
		return nil, err
	}

	g.NextTaskID++
	task := &HireTask{
		ID:            g.NextTaskID,
		Position:      position,
		Experience:    exp,
		SearchDays:    exp.ScaleDays(base),
		BaseSalary:    entry.BaseSalary,
		FinalSalary:   exp.ScaleSalary(entry.BaseSalary),
		HireThreshold: threshold,
		CreatedDate:   g.Date,
	}
	g.Tasks = append(g.Tasks, task)

	if g.inProgressTask() == nil {
		s.beginTaskLocked(g, task, recruiter)
	} else {
		task.Status = TaskPending
		task.QueuePosition = len(g.pendingTasks())
		s.logLocked(g, sevInfo, fmt.Sprintf(
			"Search for %s %s queued at position %d.", task.Experience, task.Position, task.QueuePosition))
	}
	s.persistLocked(g)
	return task, nil
}

// beginTaskLocked moves a task to in-progress and schedules its
// completion event. The completion date counts from today, not from
// when the task was queued.
func (s *Store) beginTaskLocked(g *Game, task *HireTask, recruiter *Employee) {
	task.Status = TaskInProgress
	task.QueuePosition = 0
	task.StartedDate = g.Date
	task.CompletionDate = g.Date.AddDays(task.SearchDays)
	g.enqueueEvent(ScheduledEvent{
		Type:        EventHireCompletion,
		Date:        task.CompletionDate,
		TaskID:      task.ID,
		RecruiterID: recruiter.ID,
	})
	s.logLocked(g, sevInfo, fmt.Sprintf(
		"%s starts searching for a %s %s: %d days, completing %s. Salary on hire: %d SC/month.",
		recruiter.Name, task.Experience, task.Position, task.SearchDays, task.CompletionDate, task.FinalSalary))
}

// resolveHireCompletionLocked settles a finished search: 2d6 plus the
// recruiter's experience and morale modifiers plus company reputation
// against the position threshold. The same roll then evolves the
// recruiter's stats, and the next queued search starts immediately.
func (s *Store) resolveHireCompletionLocked(g *Game, ev ScheduledEvent, dice []int) *HireOutcome {
	outcome := &HireOutcome{TaskID: ev.TaskID, Messages: []string{}}

	task := g.taskByID(ev.TaskID)
	if task == nil || task.Status != TaskInProgress {
		s.logLocked(g, sevWarning, fmt.Sprintf("Hire completion event %d had no running task.", ev.ID))
		return outcome
	}
	outcome.Position = task.Position

	recruiter := g.employeeByID(ev.RecruiterID)
	if recruiter == nil || !recruiter.Active {
		// Recruiter left mid-search; the search fizzles.
		task.Status = TaskFailed
		task.FinishedDate = g.Date
		s.logLocked(g, sevWarning, fmt.Sprintf(
			"Search for %s collapsed: the recruiter is no longer aboard.", task.Position))
		s.chainNextTaskLocked(g, outcome)
		return outcome
	}

	if dice == nil {
		dice = s.dice.Roll(2, 6)
	}
	result := &HireResult{
		Dice:          dice,
		ModExperience: recruiter.Experience.Modifier(),
		ModMorale:     recruiter.Morale.Modifier(),
		ModReputation: g.Reputation,
		Threshold:     task.HireThreshold,
	}
	result.Total = dice[0] + dice[1] + result.ModExperience + result.ModMorale + result.ModReputation
	result.Success = result.Total >= result.Threshold

	task.Result = result
	task.FinishedDate = g.Date
	outcome.Result = result

	if result.Success {
		task.Status = TaskCompleted
		emp := g.addEmployeeLocked(task.Position, s.randomCrewName(g), task.FinalSalary,
			task.Experience, MoraleMedium, false)
		result.NewEmployeeID = emp.ID
		outcome.NewEmployee = emp
		s.logLocked(g, sevSuccess, fmt.Sprintf(
			"Search succeeded (%d+%d vs %d+): %s hired as %s %s for %d SC/month.",
			dice[0]+dice[1], result.ModExperience+result.ModMorale+result.ModReputation,
			result.Threshold, emp.Name, emp.Experience, emp.Position, emp.MonthlySalary))
	} else {
		task.Status = TaskFailed
		s.logLocked(g, sevWarning, fmt.Sprintf(
			"Search for %s %s failed: rolled %d against %d+.",
			task.Experience, task.Position, result.Total, result.Threshold))
	}

	// Every resolution roll feeds back into the recruiter's stats.
	stats := evolveRollStats(dice,
		result.ModExperience+result.ModMorale+result.ModReputation,
		recruiter.Morale, recruiter.Experience)
	recruiter.Morale = stats.NewMorale
	recruiter.Experience = stats.NewExperience
	outcome.RecruiterStats = stats
	for _, msg := range stats.Messages {
		s.logLocked(g, sevInfo, fmt.Sprintf("%s: %s", recruiter.Name, msg))
	}
	outcome.Messages = append(outcome.Messages, stats.Messages...)

	s.chainNextTaskLocked(g, outcome)
	return outcome
}

// chainNextTaskLocked promotes the head of the pending queue, if any,
// so the recruiter is never idle while searches wait.
func (s *Store) chainNextTaskLocked(g *Game, outcome *HireOutcome) {
	recruiter := g.activeRecruiter()
	if recruiter == nil {
		return
	}
	pending := g.pendingTasks()
	if len(pending) == 0 {
		return
	}
	next := pending[0]
	s.beginTaskLocked(g, next, recruiter)
	g.renumberPendingLocked()
	if outcome != nil {
		outcome.NextTaskID = next.ID
	}
}

// reorderPendingTaskLocked moves a pending task to a new queue slot
// (1-based, clamped). Only pending tasks can move.
func (s *Store) reorderPendingTaskLocked(g *Game, taskID int64, newPosition int) error {
	task := g.taskByID(taskID)
	if task == nil || task.Status != TaskPending {
		return ErrTaskNotPending
	}
	pending := g.pendingTasks()
	newPosition = clampInt(newPosition, 1, len(pending))

	filtered := pending[:0]
	for _, t := range pending {
		if t.ID != taskID {
			filtered = append(filtered, t)
		}
	}
	filtered = append(filtered, nil)
	copy(filtered[newPosition:], filtered[newPosition-1:])
	filtered[newPosition-1] = task
	for i, t := range filtered {
		t.QueuePosition = i + 1
	}
	s.logLocked(g, sevInfo, fmt.Sprintf(
		"Search for %s moved to queue position %d.", task.Position, task.QueuePosition))
	s.persistLocked(g)
	return nil
}

// deletePendingTaskLocked cancels a queued search. Running or finished
// searches cannot be cancelled.
func (s *Store) deletePendingTaskLocked(g *Game, taskID int64) error {
	task := g.taskByID(taskID)
	if task == nil || task.Status != TaskPending {
		return ErrTaskNotPending
	}
	for i, t := range g.Tasks {
		if t.ID == taskID {
			g.Tasks = append(g.Tasks[:i], g.Tasks[i+1:]...)
			break
		}
	}
	g.renumberPendingLocked()
	s.logLocked(g, sevInfo, fmt.Sprintf("Cancelled queued search for %s.", task.Position))
	s.persistLocked(g)
	return nil
}
