package sim

import (
	"encoding/json"
	"time"
)

// JournalEntry records one executed operator command.
type JournalEntry struct {
	SimTime   float64   `json:"sim_time"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Details   string    `json:"details"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// Journal returns a copy of the recorded commands, oldest first.
func (e *Engine) Journal() []JournalEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]JournalEntry, len(e.journal))
	copy(out, e.journal)
	return out
}

// JournalLaunch is the journal command name of an interceptor launch. Every
// launch is recorded, whichever surface requested it.
const JournalLaunch = "launch"

type launchDetails struct {
	DroneID       string `json:"drone_id"`
	InterceptorID string `json:"interceptor_id"`
	IssuedBy      string `json:"issued_by,omitempty"`
	Method        string `json:"method,omitempty"`
	Guidance      string `json:"guidance_mode"`
}

func (e *Engine) record(cmd Command, res CommandResult) {
	details, _ := json.Marshal(cmd)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendJournalLocked(commandName(cmd), string(details), res.OK, res.Error)
}

func (e *Engine) recordLaunchLocked(req EngageRequest, interceptorID string, mode string) {
	details, _ := json.Marshal(launchDetails{
		DroneID:       req.DroneID,
		InterceptorID: interceptorID,
		IssuedBy:      req.IssuedBy,
		Method:        req.Method,
		Guidance:      mode,
	})
	e.appendJournalLocked(JournalLaunch, string(details), true, "")
}

func (e *Engine) appendJournalLocked(command, details string, ok bool, errMsg string) {
	e.journal = append(e.journal, JournalEntry{
		SimTime:   e.time,
		Timestamp: e.clock.Header("", e.time).Timestamp,
		Command:   command,
		Details:   details,
		OK:        ok,
		Error:     errMsg,
	})
	if len(e.journal) > maxJournalEntries {
		e.journal = e.journal[len(e.journal)-maxJournalEntries:]
	}
}
