package main

import (
	"errors"
	"testing"
)

func startSearch(t *testing.T, s *Store, g *Game, position string, exp Experience, manual string) *HireTask {
	t.Helper()
	task, err := s.startHireSearchLocked(g, position, exp, manual)
	if err != nil {
		t.Fatalf("startHireSearchLocked(%s, %s): %v", position, exp, err)
	}
	return task
}

func TestStartHireSearchTerms(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	task := startSearch(t, s, g, "Abogado", ExperienceStandard, "3")
	if task.Status != TaskInProgress {
		t.Fatalf("first search status = %s, want in_progress", task.Status)
	}
	if task.SearchDays != 3 || task.FinalSalary != 5 || task.HireThreshold != 8 {
		t.Fatalf("terms = days %d salary %d threshold %d", task.SearchDays, task.FinalSalary, task.HireThreshold)
	}
	want := GameDate{Year: 1, Month: 1, Day: 4}
	if task.CompletionDate != want {
		t.Fatalf("completion date = %s, want %s", task.CompletionDate, want)
	}

	ev := g.peekNextEvent()
	if ev == nil || ev.Type != EventHireCompletion || ev.TaskID != task.ID {
		t.Fatalf("queue head = %+v, want hire completion for task %d", ev, task.ID)
	}
	if ev.RecruiterID != g.activeRecruiter().ID {
		t.Fatalf("event recruiter = %d, want %d", ev.RecruiterID, g.activeRecruiter().ID)
	}
}

func TestStartHireSearchExperienceScaling(t *testing.T) {
	tests := []struct {
		exp    Experience
		days   int
		salary int
	}{
		{ExperienceNovice, 3, 3}, // ceil(5/2)
		{ExperienceStandard, 5, 5},
		{ExperienceVeteran, 10, 10},
	}
	for _, tc := range tests {
		s := newTestStore(t)
		g := newTestGame(t, s)
		task := startSearch(t, s, g, "Abogado", tc.exp, "5")
		if task.SearchDays != tc.days || task.FinalSalary != tc.salary {
			t.Fatalf("%s: days %d salary %d, want %d/%d",
				tc.exp, task.SearchDays, task.FinalSalary, tc.days, tc.salary)
		}
	}
}

func TestStartHireSearchFixedFormula(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	// The flight assistant search is a fixed three days, no roll.
	task := startSearch(t, s, g, "Asistente de vuelo", ExperienceStandard, "")
	if task.SearchDays != 3 {
		t.Fatalf("fixed search days = %d, want 3", task.SearchDays)
	}
}

func TestStartHireSearchValidation(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	if _, err := s.startHireSearchLocked(g, "Cartógrafo", ExperienceStandard, ""); !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("unknown position err = %v", err)
	}

	g.CurrentPlanet = &PlanetInfo{Code: "101", Name: "Brasa", TechTier: TierRudimentary, Population: 3000}
	if _, err := s.startHireSearchLocked(g, "Abogado", ExperienceStandard, ""); !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("tech-tier gated position err = %v", err)
	}
	if _, err := s.startHireSearchLocked(g, "Mecánico", ExperienceStandard, "4"); err != nil {
		t.Fatalf("rudimentary world should still hire mechanics: %v", err)
	}

	g.CurrentPlanet = nil
	if _, err := s.startHireSearchLocked(g, "Mecánico", ExperienceStandard, ""); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("no planet err = %v", err)
	}

	g.CurrentPlanet = &testPlanet
	recruiter := g.activeRecruiter()
	recruiter.Active = false
	if _, err := s.startHireSearchLocked(g, "Mecánico", ExperienceStandard, ""); !errors.Is(err, ErrNoRecruiter) {
		t.Fatalf("no recruiter err = %v", err)
	}
}

func TestResolveHireSuccess(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	startSearch(t, s, g, "Abogado", ExperienceStandard, "3")

	report, err := s.advanceTimeLocked(g, "5,4")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if report.EventType != EventHireCompletion || report.Hire == nil {
		t.Fatalf("report = %+v", report)
	}
	res := report.Hire.Result
	if res == nil || !res.Success || res.Total != 9 || res.Threshold != 8 {
		t.Fatalf("result = %+v", res)
	}
	if report.Hire.NewEmployee == nil {
		t.Fatalf("no employee hired on success")
	}
	emp := report.Hire.NewEmployee
	if emp.Position != "Abogado" || emp.MonthlySalary != 5 || emp.Morale != MoraleMedium || emp.Experience != ExperienceStandard {
		t.Fatalf("hired employee = %+v", emp)
	}
	if emp.HireDate != (GameDate{Year: 1, Month: 1, Day: 4}) {
		t.Fatalf("hire date = %s", emp.HireDate)
	}
	if got := len(g.activeEmployees()); got != 4 {
		t.Fatalf("active crew = %d, want 4", got)
	}
	// A neutral total (9) leaves the recruiter's stats alone.
	rec := g.activeRecruiter()
	if rec.Morale != MoraleMedium || rec.Experience != ExperienceStandard {
		t.Fatalf("recruiter stats changed on neutral roll: %+v", rec)
	}
}

func TestResolveHireFailure(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	task := startSearch(t, s, g, "Abogado", ExperienceStandard, "3")

	report, err := s.advanceTimeLocked(g, "2,1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	res := report.Hire.Result
	if res.Success || res.Total != 3 {
		t.Fatalf("result = %+v", res)
	}
	if task.Status != TaskFailed {
		t.Fatalf("task status = %s, want failed", task.Status)
	}
	if got := len(g.activeEmployees()); got != 3 {
		t.Fatalf("crew grew on failed search")
	}
	// Total 3 is a poor result: the recruiter's morale drops.
	if g.activeRecruiter().Morale != MoraleLow {
		t.Fatalf("recruiter morale = %s, want Low", g.activeRecruiter().Morale)
	}
}

func TestResolveHireReputationModifier(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	g.Reputation = 2
	startSearch(t, s, g, "Abogado", ExperienceStandard, "3")

	report, err := s.advanceTimeLocked(g, "4,3")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	res := report.Hire.Result
	// 7 on the dice + reputation 2 clears the 8+ threshold.
	if !res.Success || res.Total != 9 || res.ModReputation != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestResolveHireDoubleSixPromotesRecruiter(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	startSearch(t, s, g, "Abogado", ExperienceStandard, "3")

	report, err := s.advanceTimeLocked(g, "6,6")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !report.Hire.Result.Success {
		t.Fatalf("12 should beat 8+")
	}
	rec := g.activeRecruiter()
	if rec.Experience != ExperienceVeteran {
		t.Fatalf("recruiter experience = %s, want Veteran after natural 12", rec.Experience)
	}
	if rec.Morale != MoraleHigh {
		t.Fatalf("recruiter morale = %s, want High after total 12", rec.Morale)
	}
	if !report.Hire.RecruiterStats.ExperienceChanged || !report.Hire.RecruiterStats.MoraleChanged {
		t.Fatalf("stats report = %+v", report.Hire.RecruiterStats)
	}
}

func TestVeteranDirectorHiresLawyer(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	rec := g.activeRecruiter()
	rec.Experience = ExperienceVeteran
	rec.Morale = MoraleHigh

	task := startSearch(t, s, g, "Abogado", ExperienceStandard, "4")
	if task.SearchDays != 4 || task.FinalSalary != 5 {
		t.Fatalf("terms = days %d salary %d", task.SearchDays, task.FinalSalary)
	}

	report, err := s.advanceTimeLocked(g, "5,6")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	res := report.Hire.Result
	if res.ModExperience != 1 || res.ModMorale != 1 || res.ModReputation != 0 {
		t.Fatalf("modifiers = %+v", res)
	}
	if !res.Success || res.Total != 13 {
		t.Fatalf("result = %+v", res)
	}
	emp := report.Hire.NewEmployee
	if emp.MonthlySalary != 5 || emp.Morale != MoraleMedium {
		t.Fatalf("employee = %+v", emp)
	}
}

func TestHireQueueChaining(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	first := startSearch(t, s, g, "Abogado", ExperienceStandard, "3")
	second := startSearch(t, s, g, "Mecánico", ExperienceStandard, "2")

	if second.Status != TaskPending || second.QueuePosition != 1 {
		t.Fatalf("second task = %s pos %d, want pending pos 1", second.Status, second.QueuePosition)
	}

	report, err := s.advanceTimeLocked(g, "5,4")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if report.Hire.NextTaskID != second.ID {
		t.Fatalf("chained task = %d, want %d", report.Hire.NextTaskID, second.ID)
	}
	if first.Status != TaskCompleted {
		t.Fatalf("first task status = %s", first.Status)
	}
	if second.Status != TaskInProgress || second.QueuePosition != 0 {
		t.Fatalf("second task = %s pos %d, want in_progress pos 0", second.Status, second.QueuePosition)
	}
	// The chained search counts its days from the resolution date.
	want := GameDate{Year: 1, Month: 1, Day: 6}
	if second.CompletionDate != want {
		t.Fatalf("chained completion = %s, want %s", second.CompletionDate, want)
	}
	if ev := g.peekNextEvent(); ev == nil || ev.TaskID != second.ID {
		t.Fatalf("queue head = %+v, want chained hire event", ev)
	}
}

func TestTaskBoardGrouping(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	startSearch(t, s, g, "Abogado", ExperienceStandard, "3")
	startSearch(t, s, g, "Mecánico", ExperienceStandard, "2")
	third := startSearch(t, s, g, "Médico", ExperienceStandard, "2,2")

	if _, err := s.advanceTimeLocked(g, "5,4"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	board := g.taskBoard()
	if board.Current == nil || board.Current.Position != "Mecánico" {
		t.Fatalf("board current = %+v", board.Current)
	}
	if len(board.Pending) != 1 || board.Pending[0].ID != third.ID || board.Pending[0].QueuePosition != 1 {
		t.Fatalf("board pending = %+v", board.Pending)
	}
	if len(board.Finished) != 1 || board.Finished[0].Status != TaskCompleted {
		t.Fatalf("board finished = %+v", board.Finished)
	}
}

func TestReorderAndDeletePendingTasks(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)

	running := startSearch(t, s, g, "Abogado", ExperienceStandard, "3")
	b := startSearch(t, s, g, "Mecánico", ExperienceStandard, "2")
	c := startSearch(t, s, g, "Médico", ExperienceStandard, "3,3")

	if b.QueuePosition != 1 || c.QueuePosition != 2 {
		t.Fatalf("initial queue = %d, %d", b.QueuePosition, c.QueuePosition)
	}

	if err := s.reorderPendingTaskLocked(g, c.ID, 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if c.QueuePosition != 1 || b.QueuePosition != 2 {
		t.Fatalf("after reorder: b=%d c=%d", b.QueuePosition, c.QueuePosition)
	}

	if err := s.reorderPendingTaskLocked(g, running.ID, 1); !errors.Is(err, ErrTaskNotPending) {
		t.Fatalf("reorder running task err = %v", err)
	}
	if err := s.deletePendingTaskLocked(g, running.ID); !errors.Is(err, ErrTaskNotPending) {
		t.Fatalf("delete running task err = %v", err)
	}

	if err := s.deletePendingTaskLocked(g, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if b.QueuePosition != 1 {
		t.Fatalf("queue not renumbered after delete: b=%d", b.QueuePosition)
	}
	if g.taskByID(c.ID) != nil {
		t.Fatalf("deleted task still present")
	}
}

func TestAdvanceRejectsBadManualDiceBeforeMutating(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	startSearch(t, s, g, "Abogado", ExperienceStandard, "3")

	before := g.Date
	if _, err := s.advanceTimeLocked(g, "9,9"); !errors.Is(err, ErrInvalidManualDice) {
		t.Fatalf("err = %v, want ErrInvalidManualDice", err)
	}
	if g.Date != before {
		t.Fatalf("date moved on rejected dice: %s", g.Date)
	}
	if ev := g.peekNextEvent(); ev == nil || ev.Type != EventHireCompletion {
		t.Fatalf("event consumed on rejected dice")
	}
}

func TestResolveHireWithGeneratedDice(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	s.dice = &scriptedDice{rolls: [][]int{{6, 5}}}
	startSearch(t, s, g, "Abogado", ExperienceStandard, "3")

	report, err := s.advanceTimeLocked(g, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	res := report.Hire.Result
	// Generated dice take the identical resolution path as manual ones.
	if !res.Success || res.Total != 11 {
		t.Fatalf("scripted result = %+v", res)
	}
}
