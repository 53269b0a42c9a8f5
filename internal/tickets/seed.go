package tickets

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rebeliceyang/ticketq/internal/models"
)

var (
	demoTypes       = []string{"defect", "enhancement", "task"}
	demoComponents  = []string{"component1", "component2"}
	demoPriorities  = []string{"blocker", "critical", "major", "minor", "trivial"}
	demoMilestones  = []string{"milestone1", "milestone2", "milestone3", "milestone4"}
	demoVersions    = []string{"1.0", "2.0"}
	demoPeople      = []string{"alice", "bob", "carol", "dave", "erin", ""}
	demoResolutions = []string{"fixed", "invalid", "wontfix", "duplicate", "worksforme"}
	demoSubjects    = []string{"crash", "typo", "slow query", "login page", "timeline", "attachment upload", "wiki macro"}
	demoVerbs       = []string{"Fix", "Improve", "Investigate", "Document", "Remove"}
)

// DemoTickets generates n reproducible tickets created during the year
// before now
func DemoTickets(now time.Time, n int) []models.Ticket {
	r := rand.New(rand.NewPCG(1, 2))
	pick := func(s []string) string { return s[r.IntN(len(s))] }

	tickets := make([]models.Ticket, n)
	for i := range tickets {
		created := now.Add(-time.Duration(r.Int64N(int64(365 * 24 * time.Hour)))).Truncate(time.Second)
		changed := created.Add(time.Duration(r.Int64N(int64(now.Sub(created)) + 1))).Truncate(time.Second)

		status := pick([]string{"new", "assigned", "accepted", "reopened", "closed"})
		resolution := ""
		if status == "closed" {
			resolution = pick(demoResolutions)
		}
		subject := pick(demoSubjects)

		tickets[i] = models.Ticket{
			ID:          int64(i + 1),
			Type:        pick(demoTypes),
			Time:        created,
			ChangeTime:  changed,
			Component:   pick(demoComponents),
			Priority:    pick(demoPriorities),
			Owner:       pick(demoPeople),
			Reporter:    pick(demoPeople[:len(demoPeople)-1]),
			Version:     pick(demoVersions),
			Milestone:   pick(demoMilestones),
			Status:      status,
			Resolution:  resolution,
			Summary:     fmt.Sprintf("%s %s", pick(demoVerbs), subject),
			Description: fmt.Sprintf("Steps to reproduce the %s problem are attached.", subject),
			Keywords:    subject,
		}
	}
	return tickets
}
