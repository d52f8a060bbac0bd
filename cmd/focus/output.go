package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/fastygo/focus/domain"
	authUC "github.com/fastygo/focus/usecase/auth"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type savedFile struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// now is replaced in tests so relative times are stable.
var now = time.Now

func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		doc, err := toDocument(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderText(w, v)
	}
}

// toDocument round-trips v through JSON so YAML keys follow the json tags.
func toDocument(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func renderText(w io.Writer, v interface{}) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch x := v.(type) {
	case nil:
		fmt.Fprintln(tw, "ok")
	case *authUC.Token:
		fmt.Fprintln(tw, x.AccessToken)
	case domain.Identity:
		fmt.Fprintf(tw, "user\t%s\n", x.UserID)
		if x.Email != "" {
			fmt.Fprintf(tw, "email\t%s\n", x.Email)
		}
	case *domain.User:
		fmt.Fprintf(tw, "id\t%s\n", x.ID)
		fmt.Fprintf(tw, "email\t%s\n", x.Email)
		fmt.Fprintf(tw, "name\t%s\n", deref(x.DisplayName, "-"))
		fmt.Fprintf(tw, "joined\t%s\n", relative(x.CreatedAt))
	case *domain.Task:
		writeTasks(tw, []domain.Task{*x})
	case []domain.Task:
		if len(x) == 0 {
			fmt.Fprintln(tw, "no tasks")
			break
		}
		writeTasks(tw, x)
	case *domain.FocusSession:
		writeSessions(tw, []domain.FocusSession{*x})
		for _, ref := range x.ProofPhotos {
			fmt.Fprintf(tw, "  proof\t%s\n", ref)
		}
	case []domain.FocusSession:
		if len(x) == 0 {
			fmt.Fprintln(tw, "no sessions")
			break
		}
		writeSessions(tw, x)
	case *domain.Streak:
		fmt.Fprintf(tw, "current\t%s\n", days(x.CurrentStreak))
		fmt.Fprintf(tw, "longest\t%s\n", days(x.LongestStreak))
		fmt.Fprintf(tw, "last completed\t%s\n", deref(x.LastCompleted(), "never"))
	case savedFile:
		fmt.Fprintf(tw, "wrote %s (%s, %s)\n", x.Path, x.ContentType, humanize.Bytes(uint64(x.Size)))
	default:
		return render(w, outputJSON, v)
	}
	return tw.Flush()
}

func writeTasks(w io.Writer, tasks []domain.Task) {
	fmt.Fprintln(w, "ID\tNAME\tMINUTES\tPRIORITY\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", t.ID, t.Name, t.Duration, t.Priority, relative(t.CreatedAt))
	}
}

func writeSessions(w io.Writer, sessions []domain.FocusSession) {
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tELAPSED\tTASK\tPROOFS")
	current := now()
	for i := range sessions {
		s := &sessions[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			s.ID,
			s.Status(),
			relative(s.StartTime),
			s.Elapsed(current).Round(time.Second),
			deref(s.TaskID, "-"),
			len(s.ProofPhotos))
	}
}

func relative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now(), "ago", "from now")
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return humanize.Comma(int64(n)) + " days"
}

func deref(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
