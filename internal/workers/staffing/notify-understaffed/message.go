// internal/workers/staffing/notify-understaffed/message.go
package notifyunderstaffed

import (
	"fmt"
	"strings"
	"time"

	"montaz-workers/internal/common/format"
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
)

type message struct {
	Subject string
	Body    string
	SMS     string
}

// summary reads "Obsazeno 3 z 5 pozic. Chybí: 1× senior, 1× junior."
func summary(result coverage.Result) string {
	line := fmt.Sprintf("Obsazeno %d z %d %s.", result.Filled, result.Required,
		format.Plural(result.Required, "pozice", "pozic", "pozic"))
	if missing := format.MissingSummary(result.Missing); missing != "" {
		line += " Chybí: " + missing + "."
	}
	return line
}

func renderMessage(contact *models.ProjectContact, result coverage.Result, now time.Time) message {
	name := contact.ProjectName
	if name == "" {
		name = contact.ProjectID
	}
	line := summary(result)

	var body strings.Builder
	if contact.ManagerName != "" {
		fmt.Fprintf(&body, "Dobrý den, %s,\n\n", contact.ManagerName)
	} else {
		body.WriteString("Dobrý den,\n\n")
	}
	fmt.Fprintf(&body, "projekt %s", name)
	if contact.StartsOn != nil {
		fmt.Fprintf(&body, " (zahájení %s)", format.DateCZ(*contact.StartsOn))
	}
	body.WriteString(" není plně obsazen.\n")
	body.WriteString(line + "\n")
	if result.Status == coverage.StatusComposition {
		body.WriteString("Počet lidí odpovídá, ale jejich seniorita ne.\n")
	}
	fmt.Fprintf(&body, "\nStav ke dni %s.\n", format.DateCZ(now))

	return message{
		Subject: fmt.Sprintf("%s: chybí %s", name,
			format.Count(result.Shortfall(), "pozice", "pozice", "pozic")),
		Body: body.String(),
		SMS:  fmt.Sprintf("%s: %s", name, line),
	}
}
