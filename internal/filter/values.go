package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// buildIDs turns ticket id lists such as "1-5,8" into BETWEEN / IN tests.
// Every row contributes alternatives; "!" negates the whole set.
func buildIDs(column string, negate bool, rows []models.Row, p *params) (string, error) {
	var singles []string
	var conds []string
	for _, r := range rows {
		for _, tok := range strings.FieldsFunc(firstValue(r), func(c rune) bool {
			return c == ',' || c == ' '
		}) {
			tok = strings.TrimPrefix(tok, "#")
			lo, hi, isRange := strings.Cut(tok, "-")
			if !isRange {
				if _, err := strconv.ParseInt(tok, 10, 64); err != nil {
					return "", fmt.Errorf("%w: %q", ErrInvalidID, tok)
				}
				singles = append(singles, tok)
				continue
			}
			a, errA := strconv.ParseInt(lo, 10, 64)
			b, errB := strconv.ParseInt(hi, 10, 64)
			if errA != nil || errB != nil || a > b {
				return "", fmt.Errorf("%w: %q", ErrInvalidID, tok)
			}
			conds = append(conds, column+" BETWEEN "+p.add(a)+" AND "+p.add(b))
		}
	}

	switch len(singles) {
	case 0:
	case 1:
		n, _ := strconv.ParseInt(singles[0], 10, 64)
		conds = append(conds, column+"="+p.add(n))
	default:
		holders := make([]string, len(singles))
		for i, s := range singles {
			n, _ := strconv.ParseInt(s, 10, 64)
			holders[i] = p.add(n)
		}
		conds = append(conds, column+" IN ("+strings.Join(holders, ",")+")")
	}

	cond := group(conds, " OR ")
	if cond == "" || !negate {
		return cond, nil
	}
	return "NOT " + parenthesize(cond), nil
}

func parenthesize(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return s
	}
	return "(" + s + ")"
}

var relativeRe = regexp.MustCompile(`^(\d+)\s*(d|days?|w|weeks?|m|months?|y|years?)(?:\s+ago)?$`)

// parseTime resolves a time bound. Besides absolute dates it accepts "now",
// "today", "yesterday" and relative bounds such as "3d", "2 weeks ago" or
// "1y", which count back from the start of today. An empty bound yields the
// zero time.
func (b *Builder) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	word := strings.ToLower(s)
	now := b.now().In(b.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc)

	switch word {
	case "":
		return time.Time{}, nil
	case "now":
		return now, nil
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if m := relativeRe.FindStringSubmatch(word); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		switch m[2][0] {
		case 'd':
			return today.AddDate(0, 0, -n), nil
		case 'w':
			return today.AddDate(0, 0, -7*n), nil
		case 'm':
			return today.AddDate(0, -n, 0), nil
		default:
			return today.AddDate(-n, 0, 0), nil
		}
	}

	t, err := dateparse.ParseIn(s, b.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t, nil
}
