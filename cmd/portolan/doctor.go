package main

import (
	"fmt"

	"portolan"
	"portolan/cmd/portolan/ui"
	"portolan/sdk"

	"github.com/spf13/cobra"
)

// issue is one finding from the doctor checks.
type issue struct {
	component string
	phase     string
	message   string
	hint      string
	blocker   bool
}

func doctorCmd(hostFlag, contextFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose daemon and topology problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect(*hostFlag, *contextFlag)
			if err != nil {
				printIssues([]issue{{
					component: "daemon",
					phase:     "unreachable",
					message:   err.Error(),
					hint:      "start portoland or point --host/--context at a running daemon",
					blocker:   true,
				}})
				return nil
			}
			defer client.Close()

			h, err := client.Health(cmd.Context())
			if err != nil {
				printIssues([]issue{{
					component: "daemon",
					phase:     "unreachable",
					message:   err.Error(),
					hint:      "is portoland running at this target?",
					blocker:   true,
				}})
				return nil
			}

			var snap *portolan.Snapshot
			if s, err := client.NetworkData(cmd.Context()); err == nil {
				snap = &s
			}

			issues := diagnose(h, snap)
			if len(issues) == 0 {
				fmt.Println(ui.SuccessMsg("No issues found."))
				return nil
			}
			printIssues(issues)
			return nil
		},
	}
}

// diagnose derives findings from a health report and, when available,
// the current snapshot.
func diagnose(h sdk.Health, snap *portolan.Snapshot) []issue {
	var issues []issue

	switch {
	case !h.Ready:
		issues = append(issues, issue{
			component: "collector",
			phase:     "starting",
			message:   "no snapshot published yet",
			hint:      "wait one refresh interval or run \"portolan snapshot --fresh\"",
		})
	case !h.DockerAvailable:
		issues = append(issues, issue{
			component: "docker",
			phase:     "down",
			message:   "daemon cannot reach the Docker engine",
			hint:      "check the engine socket portoland points at (--docker-host)",
			blocker:   true,
		})
	}

	if c := h.LastCycle; c != nil && c.Phase == "stale" {
		issues = append(issues, issue{
			component: "collector",
			phase:     "stalled",
			message:   fmt.Sprintf("last snapshot is %s old", c.Age),
			hint:      "portoland is up but has stopped publishing; check its logs",
			blocker:   true,
		})
	}

	if h.Clock != nil {
		switch h.Clock.Phase {
		case "unhealthy_offset":
			issues = append(issues, issue{
				component: "clock",
				phase:     "skewed",
				message:   fmt.Sprintf("host clock is off by %s", h.Clock.Offset),
				hint:      "sync the host clock; snapshot timestamps may mislead until then",
			})
		case "unreachable":
			issues = append(issues, issue{
				component: "clock",
				phase:     "unreachable",
				message:   "NTP pool did not answer: " + h.Clock.Error,
				hint:      "clock skew cannot be ruled out; check NTP egress from the daemon host",
			})
		}
	}

	if snap != nil && !snap.Degraded() {
		failed := 0
		for _, rec := range snap.Containers {
			if rec.Stats.Failed() {
				failed++
			}
		}
		if failed > 0 {
			issues = append(issues, issue{
				component: "stats",
				phase:     "partial",
				message:   fmt.Sprintf("%d of %d containers report no stats", failed, len(snap.Containers)),
				hint:      "usually transient: containers restarting or removed mid-cycle",
			})
		}
	}

	return issues
}

func printIssues(issues []issue) {
	for _, is := range issues {
		msg := "%s (%s): %s"
		if is.blocker {
			fmt.Println(ui.ErrorMsg(msg, is.component, is.phase, is.message))
		} else {
			fmt.Println(ui.WarnMsg(msg, is.component, is.phase, is.message))
		}
		if is.hint != "" {
			fmt.Println(ui.Muted("  fix: " + is.hint))
		}
	}
}
