package main

import (
	"log"
	"time"
)

type Severity string

const (
	sevInfo    Severity = "info"
	sevSuccess Severity = "success"
	sevWarning Severity = "warning"
	sevError   Severity = "error"
)

// LogEntry is one line of a game's narrative log, shown in the UI and
// streamed over the websocket feed.
type LogEntry struct {
	At       time.Time `json:"at"`
	GameDate GameDate  `json:"game_date"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// logLocked appends to the game's bounded log, echoes to the server
// log and pushes the entry to connected websocket clients.
func (s *Store) logLocked(g *Game, sev Severity, message string) {
	entry := LogEntry{
		At:       time.Now().UTC(),
		GameDate: g.Date,
		Severity: sev,
		Message:  message,
	}
	g.Logs = append(g.Logs, entry)
	if len(g.Logs) > maxLogEntries {
		g.Logs = g.Logs[len(g.Logs)-maxLogEntries:]
	}
	log.Printf("game %s [%s] %s: %s", g.ID, g.Date, sev, message)
	if s.hub != nil {
		s.hub.BroadcastLog(g.ID, entry)
	}
}

// gameLogs returns up to limit entries, newest first, optionally
// filtered by severity. limit <= 0 means all.
func gameLogs(g *Game, limit int, severity Severity) []LogEntry {
	out := []LogEntry{}
	for i := len(g.Logs) - 1; i >= 0; i-- {
		if severity != "" && g.Logs[i].Severity != severity {
			continue
		}
		out = append(out, g.Logs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
