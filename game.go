package main

import (
	"errors"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxLogEntries = 300

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameOver         = errors.New("game over: company is bankrupt")
	ErrSetupIncomplete  = errors.New("game setup not complete")
	ErrNoPendingEvents  = errors.New("no pending events")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrMissionNotFound  = errors.New("mission not found")
)

var difficultyFunds = map[string]int{
	"easy":   600,
	"normal": 500,
	"hard":   400,
}

// Employee is one crew member. Employees are never deleted, only
// deactivated, so completed-task history keeps resolving.
type Employee struct {
	ID            int64      `json:"id"`
	Position      string     `json:"position"`
	Name          string     `json:"name"`
	MonthlySalary int        `json:"monthly_salary"`
	Experience    Experience `json:"experience"`
	Morale        Morale     `json:"morale"`
	HireDate      GameDate   `json:"hire_date"`
	Active        bool       `json:"active"`
	Recruiter     bool       `json:"recruiter"`
	Notes         string     `json:"notes,omitempty"`
}

// Mission tracks a campaign objective or special mission. A mission
// with a deadline owns a mission_deadline event that stays queued
// until the player resolves the outcome.
type Mission struct {
	ID            int64    `json:"id"`
	Kind          string   `json:"kind"` // "campaign" or "special"
	Objective     string   `json:"objective"`
	Deadline      GameDate `json:"deadline,omitzero"`
	Result        string   `json:"result,omitempty"` // "", "success", "failure"
	CreatedDate   GameDate `json:"created_date"`
	CompletedDate GameDate `json:"completed_date,omitzero"`
	Notes         string   `json:"notes,omitempty"`
}

// Transaction is one treasury movement, kept for the ledger page.
type Transaction struct {
	Date        GameDate `json:"date"`
	Kind        string   `json:"kind"` // "expense" or "income"
	Category    string   `json:"category"`
	Amount      int      `json:"amount"`
	Description string   `json:"description"`
}

// Game is the full persisted state of one campaign. All ID counters
// are per game, so entities never collide across campaigns.
type Game struct {
	ID            string      `json:"id"`
	CompanyName   string      `json:"company_name"`
	ShipName      string      `json:"ship_name"`
	CreatedAt     time.Time   `json:"created_at"`
	Date          GameDate    `json:"date"`
	Treasury      int         `json:"treasury"`
	Reputation    int         `json:"reputation"`
	Difficulty    string      `json:"difficulty,omitempty"`
	SetupComplete bool        `json:"setup_complete"`
	Bankrupt      bool        `json:"bankrupt"`
	CurrentPlanet *PlanetInfo `json:"current_planet,omitempty"`

	Employees    []*Employee      `json:"employees"`
	Tasks        []*HireTask      `json:"tasks"`
	Missions     []*Mission       `json:"missions"`
	Events       []ScheduledEvent `json:"events"`
	Logs         []LogEntry       `json:"logs"`
	Transactions []Transaction    `json:"transactions"`

	NextEmployeeID int64 `json:"next_employee_id"`
	NextTaskID     int64 `json:"next_task_id"`
	NextEventID    int64 `json:"next_event_id"`
	NextMissionID  int64 `json:"next_mission_id"`
}

// Store holds every loaded game plus the injected collaborators: rule
// tables, dice source, SQL repository and the live log hub.
type Store struct {
	mu sync.Mutex

	Games map[string]*Game

	reference *ReferenceData
	dice      DiceSource
	rng       *mathrand.Rand
	repo      *SQLRepository
	hub       *Hub
}

func newStore(reference *ReferenceData) *Store {
	rng := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	return &Store{
		Games:     map[string]*Game{},
		reference: reference,
		dice:      newRandomDice(rng),
		rng:       rng,
	}
}

func (s *Store) gameLocked(id string) (*Game, error) {
	g := s.Games[id]
	if g == nil {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (s *Store) createGameLocked(companyName, shipName string) *Game {
	g := &Game{
		ID:           uuid.NewString(),
		CompanyName:  companyName,
		ShipName:     shipName,
		CreatedAt:    time.Now().UTC(),
		Date:         GameDate{Year: 1, Month: 1, Day: 1},
		Employees:    []*Employee{},
		Tasks:        []*HireTask{},
		Missions:     []*Mission{},
		Events:       []ScheduledEvent{},
		Logs:         []LogEntry{},
		Transactions: []Transaction{},
	}
	s.Games[g.ID] = g
	return g
}

// completeSetupLocked fixes difficulty and starting funds, docks the
// ship at its home world, seeds the initial crew from the reference
// tables and schedules the first payroll.
func (s *Store) completeSetupLocked(g *Game, difficulty string, planet PlanetInfo) error {
	funds, ok := difficultyFunds[difficulty]
	if !ok {
		return fmt.Errorf("invalid difficulty %q", difficulty)
	}
	if g.SetupComplete {
		return errors.New("setup already complete")
	}

	g.Difficulty = difficulty
	g.Treasury = funds
	g.Reputation = 0
	g.CurrentPlanet = &planet
	g.SetupComplete = true

	s.logLocked(g, sevSuccess, fmt.Sprintf(
		"%s begins operations aboard the %s from %s. Difficulty %s, starting funds %d SC.",
		g.CompanyName, g.ShipName, planet.Name, difficulty, funds))

	for _, member := range s.reference.InitialCrew {
		emp := g.addEmployeeLocked(member.Position, member.Name, member.Salary,
			member.Experience, member.Morale, member.Recruiter)
		s.logLocked(g, sevInfo, fmt.Sprintf("%s joins as %s for %d SC/month.",
			emp.Name, emp.Position, emp.MonthlySalary))
	}

	firstPayday := g.Date.NextPayday()
	g.enqueueEvent(ScheduledEvent{Type: EventSalaryPayment, Date: firstPayday})
	s.logLocked(g, sevInfo, fmt.Sprintf("Next salary payment scheduled for day 35 (%s).", firstPayday))
	s.persistLocked(g)
	return nil
}

// addEmployeeLocked creates an employee with the game's next ID.
func (g *Game) addEmployeeLocked(position, name string, salary int, exp Experience, morale Morale, recruiter bool) *Employee {
	g.NextEmployeeID++
	emp := &Employee{
		ID:            g.NextEmployeeID,
		Position:      position,
		Name:          name,
		MonthlySalary: salary,
		Experience:    exp,
		Morale:        morale,
		HireDate:      g.Date,
		Active:        true,
		Recruiter:     recruiter,
	}
	g.Employees = append(g.Employees, emp)
	return emp
}

func (g *Game) employeeByID(id int64) *Employee {
	for _, emp := range g.Employees {
		if emp.ID == id {
			return emp
		}
	}
	return nil
}

func (g *Game) activeEmployees() []*Employee {
	out := []*Employee{}
	for _, emp := range g.Employees {
		if emp.Active {
			out = append(out, emp)
		}
	}
	return out
}

// activeRecruiter resolves the employee who runs hiring searches: the
// first active crew member flagged as recruiter, not a hard-coded
// position name.
func (g *Game) activeRecruiter() *Employee {
	for _, emp := range g.Employees {
		if emp.Active && emp.Recruiter {
			return emp
		}
	}
	return nil
}

// directHireLocked adds a crew member without a search, for manual
// bookkeeping when the hire happened away from the table rules.
func (s *Store) directHireLocked(g *Game, position, name string, salary int, exp Experience, morale Morale, notes string) (*Employee, error) {
	if g.Bankrupt {
		return nil, ErrGameOver
	}
	if !g.SetupComplete {
		return nil, ErrSetupIncomplete
	}
	if name == "" {
		name = s.randomCrewName(g)
	}
	emp := g.addEmployeeLocked(position, name, salary, exp, morale, false)
	emp.Notes = notes
	s.logLocked(g, sevSuccess, fmt.Sprintf(
		"%s joins directly as %s %s for %d SC/month.", emp.Name, emp.Experience, emp.Position, emp.MonthlySalary))
	s.persistLocked(g)
	return emp, nil
}

// EmployeeUpdate carries the editable employee fields; nil pointers
// leave the current value alone.
type EmployeeUpdate struct {
	Name          *string `json:"name"`
	MonthlySalary *int    `json:"monthly_salary"`
	Notes         *string `json:"notes"`
}

func (s *Store) updateEmployeeLocked(g *Game, employeeID int64, upd EmployeeUpdate) (*Employee, error) {
	emp := g.employeeByID(employeeID)
	if emp == nil || !emp.Active {
		return nil, ErrEmployeeNotFound
	}
	if upd.Name != nil && *upd.Name != "" {
		emp.Name = *upd.Name
	}
	if upd.MonthlySalary != nil && *upd.MonthlySalary >= 0 {
		emp.MonthlySalary = *upd.MonthlySalary
	}
	if upd.Notes != nil {
		emp.Notes = *upd.Notes
	}
	s.logLocked(g, sevInfo, fmt.Sprintf("Updated record for %s (%s).", emp.Name, emp.Position))
	s.persistLocked(g)
	return emp, nil
}

func (s *Store) fireEmployeeLocked(g *Game, employeeID int64) error {
	emp := g.employeeByID(employeeID)
	if emp == nil || !emp.Active {
		return ErrEmployeeNotFound
	}
	emp.Active = false
	s.logLocked(g, sevWarning, fmt.Sprintf("Dismissed %s: %s.", emp.Position, emp.Name))
	s.persistLocked(g)
	return nil
}

/// ResolutionReport is what advanceTime hands back to the UI layer:
// which event fired and its detailed outcome.
type ResolutionReport struct {
	EventID          int64     `json:"event_id"`
	EventType        EventType `json:"event_type"`
	OldDate          GameDate  `json:"old_date"`
	NewDate          GameDate  `json:"new_date"`
	RequiresInput    bool      `json:"requires_input"`
	RemovedFromQueue bool      `json:"removed_from_queue"`

	Payroll *PayrollOutcome         `json:"payroll,omitempty"`
	Hire    *HireOutcome            `json:"hire,omitempty"`
	Mission *MissionDeadlineOutcome `json:"mission,omitempty"`
}

// MissionDeadlineOutcome asks the UI to collect the player's mission
// result; the event stays queued until resolveMission removes it.
type MissionDeadlineOutcome struct {
	MissionID int64  `json:"mission_id"`
	Kind      string `json:"kind"`
	Objective string `json:"objective"`
	Notes     string `json:"notes,omitempty"`
}

// advanceTimeLocked pops the earliest event, moves the game clock to
// its date and dispatches it. Auto-continuations (chained hire tasks,
// next payroll) complete inside this same call. All validation happens
// before any state is touched.
func (s *Store) advanceTimeLocked(g *Game, manualDice string) (*ResolutionReport, error) {
	if g.Bankrupt {
		return nil, ErrGameOver
	}
	if !g.SetupComplete {
		return nil, ErrSetupIncomplete
	}
	ev := g.peekNextEvent()
	if ev == nil {
		return nil, ErrNoPendingEvents
	}

	// Manual dice only apply to hire resolutions, and must be rejected
	// before the clock moves.
	var hireDice []int
	if ev.Type == EventHireCompletion && manualDice != "" {
		parsed, err := parseManualDice(manualDice, 2, 6)
		if err != nil {
			return nil, err
		}
		hireDice = parsed
	}

	fired := *ev
	report := &ResolutionReport{
		EventID:   fired.ID,
		EventType: fired.Type,
		OldDate:   g.Date,
		NewDate:   fired.Date,
	}
	g.Date = fired.Date

	switch fired.Type {
	case EventSalaryPayment:
		report.Payroll = s.handleSalaryPaymentLocked(g, fired)
		report.RemovedFromQueue = true
	case EventHireCompletion:
		report.Hire = s.resolveHireCompletionLocked(g, fired, hireDice)
		report.RemovedFromQueue = true
	case EventMissionDeadline:
		mission := g.missionByID(fired.MissionID)
		if mission == nil {
			// Mission was deleted out from under its deadline; drop the event.
			report.RemovedFromQueue = true
		} else {
			report.RequiresInput = true
			report.Mission = &MissionDeadlineOutcome{
				MissionID: mission.ID,
				Kind:      mission.Kind,
				Objective: mission.Objective,
				Notes:     mission.Notes,
			}
			s.logLocked(g, sevWarning, fmt.Sprintf("Mission deadline reached: %s.", mission.Objective))
		}
	default:
		return nil, fmt.Errorf("no handler for event type %q", fired.Type)
	}

	if report.RemovedFromQueue {
		g.removeEvent(fired.ID)
	}
	s.persistLocked(g)
	return report, nil
}

func (g *Game) missionByID(id int64) *Mission {
	for _, m := range g.Missions {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// addMissionLocked records a mission and, when it has a deadline,
// queues the deadline event.
func (s *Store) addMissionLocked(g *Game, kind, objective, notes string, deadline GameDate) *Mission {
	g.NextMissionID++
	mission := &Mission{
		ID:          g.NextMissionID,
		Kind:        kind,
		Objective:   objective,
		Notes:       notes,
		Deadline:    deadline,
		CreatedDate: g.Date,
	}
	g.Missions = append(g.Missions, mission)
	s.logLocked(g, sevInfo, fmt.Sprintf("New mission: %s.", objective))
	if !deadline.IsZero() {
		g.enqueueEvent(ScheduledEvent{Type: EventMissionDeadline, Date: deadline, MissionID: mission.ID})
		s.logLocked(g, sevInfo, fmt.Sprintf("Mission deadline scheduled for %s.", deadline))
	}
	s.persistLocked(g)
	return mission
}

// resolveMissionLocked records the player's outcome, adjusts
// reputation one step within -5..+5 and clears the pending deadline
// event so the queue can advance again.
func (s *Store) resolveMissionLocked(g *Game, missionID int64, success bool) error {
	mission := g.missionByID(missionID)
	if mission == nil {
		return ErrMissionNotFound
	}
	if mission.Result != "" {
		return fmt.Errorf("mission %d already resolved", missionID)
	}
	if success {
		mission.Result = "success"
		g.Reputation = clampInt(g.Reputation+1, -5, 5)
	} else {
		mission.Result = "failure"
		g.Reputation = clampInt(g.Reputation-1, -5, 5)
	}
	mission.CompletedDate = g.Date

	for _, ev := range g.eventsByType(EventMissionDeadline) {
		if ev.MissionID == missionID {
			g.removeEvent(ev.ID)
		}
	}

	sev := sevSuccess
	text := "completed"
	if !success {
		sev = sevWarning
		text = "failed"
	}
	s.logLocked(g, sev, fmt.Sprintf("Mission %s: %s. Reputation now %+d.", text, mission.Objective, g.Reputation))
	s.persistLocked(g)
	return nil
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
