package main

import "fmt"

// PayrollOutcome reports one monthly salary run.
type PayrollOutcome struct {
	Total          int      `json:"total"`
	EmployeesPaid  int      `json:"employees_paid"`
	BalanceBefore  int      `json:"balance_before"`
	BalanceAfter   int      `json:"balance_after"`
	Bankrupt       bool     `json:"bankrupt"`
	NextPaymentDue GameDate `json:"next_payment_due,omitzero"`
}

// handleSalaryPaymentLocked deducts the month's salaries for every
// active crew member. The payment always goes through, even into
// negative balance; a negative treasury afterwards bankrupts the
// company and ends the game. The next payroll is scheduled eagerly so
// the queue never runs dry while crew remain.
func (s *Store) handleSalaryPaymentLocked(g *Game, ev ScheduledEvent) *PayrollOutcome {
	outcome := &PayrollOutcome{BalanceBefore: g.Treasury}

	for _, emp := range g.activeEmployees() {
		outcome.Total += emp.MonthlySalary
		outcome.EmployeesPaid++
	}

	g.Treasury -= outcome.Total
	outcome.BalanceAfter = g.Treasury

	g.Transactions = append(g.Transactions, Transaction{
		Date:        g.Date,
		Kind:        "expense",
		Category:    "salaries",
		Amount:      outcome.Total,
		Description: fmt.Sprintf("Monthly salaries for %d crew", outcome.EmployeesPaid),
	})
	s.logLocked(g, sevInfo, fmt.Sprintf(
		"Paid %d SC in salaries to %d crew. Treasury %d SC -> %d SC.",
		outcome.Total, outcome.EmployeesPaid, outcome.BalanceBefore, outcome.BalanceAfter))

	if g.Treasury < 0 {
		g.Bankrupt = true
		outcome.Bankrupt = true
		s.logLocked(g, sevError, fmt.Sprintf(
			"%s is bankrupt: treasury at %d SC. Game over.", g.CompanyName, g.Treasury))
		return outcome
	}

	next := g.Date.NextPayday()
	g.enqueueEvent(ScheduledEvent{Type: EventSalaryPayment, Date: next})
	outcome.NextPaymentDue = next
	s.logLocked(g, sevInfo, fmt.Sprintf("Next salary payment scheduled for %s.", next))
	return outcome
}

// recordIncomeLocked credits the treasury, for mission rewards and
// other manual adjustments.
func (s *Store) recordIncomeLocked(g *Game, amount int, category, description string) {
	g.Treasury += amount
	g.Transactions = append(g.Transactions, Transaction{
		Date:        g.Date,
		Kind:        "income",
		Category:    category,
		Amount:      amount,
		Description: description,
	})
	s.logLocked(g, sevSuccess, fmt.Sprintf(
		"Received %d SC (%s). Treasury now %d SC.", amount, description, g.Treasury))
	s.persistLocked(g)
}
