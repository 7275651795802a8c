package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/iliyamo/astra-care/internal/client"
	"github.com/iliyamo/astra-care/internal/model"
)

// problemWindow is how long the latest reported problem stays on the
// status line.
const problemWindow = 30 * time.Second

var viewTitles = map[client.View]string{
	client.ViewDashboard:      "Dashboard",
	client.ViewVitals:         "Vitals",
	client.ViewBiometricScan:  "Biometric scan",
	client.ViewTimeline:       "Timeline",
	client.ViewChat:           "Companion",
	client.ViewAlerts:         "Alerts",
	client.ViewMissionContext: "Mission",
	client.ViewCrewOverview:   "Crew",
}

func (m Model) View() string {
	if m.app.Session.Screen() == client.ScreenLogin {
		return m.viewLogin()
	}
	snap := m.app.Sync.Snapshot()
	var b strings.Builder
	b.WriteString(m.header(snap))
	b.WriteString("\n")
	b.WriteString(m.tabs())
	b.WriteString("\n\n")
	switch m.app.Views.Current() {
	case client.ViewDashboard:
		b.WriteString(m.viewOverview(snap))
	case client.ViewVitals:
		b.WriteString(m.viewVitals(snap))
	case client.ViewBiometricScan:
		b.WriteString(m.viewScan())
	case client.ViewTimeline:
		b.WriteString(viewTimeline(snap))
	case client.ViewChat:
		b.WriteString(m.viewChat(snap))
	case client.ViewAlerts:
		b.WriteString(m.viewAlerts(snap))
	case client.ViewMissionContext:
		b.WriteString(m.viewMission(snap))
	case client.ViewCrewOverview:
		b.WriteString(m.viewCrew(snap))
	}
	b.WriteString("\n\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) header(snap client.Snapshot) string {
	sess := m.app.Session.Current()
	who := "signed out"
	if sess.User != nil {
		who = fmt.Sprintf("%s (%s)", sess.User.FullName, sess.User.Role)
	}
	synced := "never"
	if !snap.LastSync.IsZero() {
		synced = snap.LastSync.Local().Format(time.TimeOnly)
	}
	return titleStyle.Render("ASTRA-CARE") + "  " + who + mutedStyle.Render(fmt.Sprintf("  subject %s · synced %s", snap.Subject, synced))
}

func (m Model) tabs() string {
	cur := m.app.Views.Current()
	var parts []string
	for _, v := range m.app.Views.Views() {
		label := fmt.Sprintf("%d %s", int(v)+1, viewTitles[v])
		if v == cur {
			parts = append(parts, activeTab.Render(label))
		} else {
			parts = append(parts, inactiveTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) footer() string {
	status := m.status
	switch {
	case status == "":
		status = mutedStyle.Render(keyHelp(m.app.Views.Current()))
	case m.failed:
		status = errorStyle.Render(status)
	default:
		status = okStyle.Render(status)
	}
	if r, ok := m.app.Reporter.Latest(); ok && time.Since(r.Time) < problemWindow {
		line := r.Op
		if r.Err != "" {
			line += ": " + r.Err
		}
		status += "\n" + errorStyle.Render(line)
	}
	return status + "\n" + mutedStyle.Render("tab switch view · ctrl+r refresh · ctrl+l sign out · ctrl+c quit")
}

func keyHelp(v client.View) string {
	switch v {
	case client.ViewDashboard:
		return "g generate 7 days of demo data"
	case client.ViewVitals:
		return "↑/↓ field · enter submit"
	case client.ViewBiometricScan:
		return "c allow camera · s scan · x stop camera"
	case client.ViewTimeline:
		return "w change window"
	case client.ViewChat:
		return "enter send · pgup/pgdown scroll"
	case client.ViewAlerts:
		return "↑/↓ select · a acknowledge · d dismiss · e escalate"
	case client.ViewMissionContext:
		return "e edit · ↑/↓ field · ←/→ change · enter save · esc cancel"
	case client.ViewCrewOverview:
		return "↑/↓ select · enter open · r reload"
	}
	return ""
}

func (m Model) viewLogin() string {
	var b strings.Builder
	title := "Sign in"
	if m.registering {
		title = "Create account"
	}
	b.WriteString(titleStyle.Render("ASTRA-CARE · "+title) + "\n\n")
	if m.app.Sync.Subject() != "" {
		b.WriteString(errorStyle.Render("Session expired. Sign in again to continue.") + "\n\n")
	}
	n := 2
	if m.registering {
		n = len(m.login)
	}
	for i := 0; i < n; i++ {
		b.WriteString(renderInput(m.login[i]) + "\n")
	}
	if m.registering {
		line := "Role: < " + roles[m.role] + " >"
		if m.loginFocus == len(m.login) {
			line = focusStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	if m.status != "" {
		st := okStyle
		if m.failed {
			st = errorStyle
		}
		b.WriteString(st.Render(m.status) + "\n")
	}
	toggle := "ctrl+r create an account"
	if m.registering {
		toggle = "ctrl+r back to sign in"
	}
	b.WriteString(mutedStyle.Render("tab next field · enter submit · " + toggle + " · ctrl+c quit"))
	return panelStyle.Render(b.String())
}

func (m Model) viewOverview(snap client.Snapshot) string {
	w := client.ComputeWellness(snap.Vitals, snap.Baseline)
	score := wellnessStyle(w.Score).Render(fmt.Sprintf("%d %s", w.Score, w.Label))
	lines := []string{"Wellness: " + score, ""}
	if v := snap.Vitals; v != nil {
		lines = append(lines,
			fmt.Sprintf("Heart rate  %5.0f bpm   (baseline %.0f ± %.0f)", v.HeartRate, snap.Baseline.HRBaseline, snap.Baseline.HRStd),
			fmt.Sprintf("HRV         %5.0f ms    (baseline %.0f ± %.0f)", v.HRV, snap.Baseline.HRVBaseline, snap.Baseline.HRVStd),
			fmt.Sprintf("Stress      %5.0f %%", v.StressLevel),
			fmt.Sprintf("Fatigue     %5.0f %%", v.FatigueLevel),
			mutedStyle.Render(fmt.Sprintf("%s sample · %s", v.Source, v.Timestamp.Local().Format(time.DateTime))),
		)
	} else {
		lines = append(lines, mutedStyle.Render("No vitals recorded yet."))
	}
	if snap.Baseline.IsDefault {
		lines = append(lines, mutedStyle.Render("Baseline: population defaults"))
	} else {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Baseline: personal, %d samples", snap.Baseline.DataPoints)))
	}
	lines = append(lines, "", fmt.Sprintf("Active alerts: %d", len(snap.Alerts)))
	c := snap.Context
	lines = append(lines, fmt.Sprintf("Mission: %s · %s · day %d · workload %s", c.MissionPhase, c.TimeOfDay, c.DaysSinceLaunch, c.CurrentWorkload))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewVitals(snap client.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Manual entry") + "\n")
	for _, in := range m.vitals {
		b.WriteString(renderInput(in) + "\n")
	}
	if v := snap.Vitals; v != nil {
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("Latest: HR %.0f · HRV %.0f · stress %.0f · fatigue %.0f · confidence %.2f",
			v.HeartRate, v.HRV, v.StressLevel, v.FatigueLevel, v.Confidence)))
		if len(v.Validation.Issues) > 0 {
			b.WriteString("\n" + errorStyle.Render(strings.Join(v.Validation.Issues, "; ")))
		}
	}
	return panelStyle.Render(b.String())
}

func (m Model) viewScan() string {
	sc := m.app.Scanner
	state := sc.State()
	lines := []string{"State: " + focusStyle.Render(state.String())}
	switch state {
	case client.StateAwaitingConsent:
		lines = append(lines, "The scan uses the camera to estimate vitals. Press c to allow access.")
	case client.StateCameraRequested:
		lines = append(lines, "Opening camera…")
	case client.StateCameraError:
		msg := "camera unavailable"
		if err := sc.Err(); err != nil {
			msg = err.Error()
		}
		lines = append(lines, errorStyle.Render(msg), "Press c to retry.")
	case client.StateLiveFeed:
		lines = append(lines, "Camera live. Press s to scan.")
	case client.StateScanning:
		lines = append(lines, "Analysing…")
	}
	if r := sc.Result(); r != nil {
		lines = append(lines, "", renderScan(*r))
	}
	lines = append(lines, "", mutedStyle.Render(model.FacialDisclaimer))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderScan(r client.ScanResult) string {
	num := func(p *float64) string {
		if p == nil {
			return "n/a"
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	str := func(p *string) string {
		if p == nil {
			return "n/a"
		}
		return *p
	}
	return strings.Join([]string{
		fmt.Sprintf("HR %s bpm · respiration %s · HRV trend %s · SpO2 trend %s · BP %s",
			num(r.Vitals.HeartRate), num(r.Vitals.RespirationRate), num(r.Vitals.HRVTrend), num(r.Vitals.OxygenSaturationTrend), str(r.Vitals.BloodPressureTrend)),
		fmt.Sprintf("Mood %s · stress %s · fatigue %s · alertness %s · tension %s · pain %s",
			str(r.Mental.MoodState), num(r.Mental.MentalStressIndex), num(r.Mental.FatigueProbability),
			num(r.Mental.AlertnessLevel), num(r.Mental.FacialTension), num(r.Mental.PainLikelihood)),
		fmt.Sprintf("Blink %s/min · eye openness %s · hydration %s · dehydration risk %s",
			num(r.Physical.BlinkRate), num(r.Physical.EyeOpenness), str(r.Physical.SkinHydration), num(r.Physical.DehydrationRisk)),
		mutedStyle.Render(fmt.Sprintf("Confidence %.2f", r.Confidence["overall"])),
	}, "\n")
}

func viewTimeline(snap client.Snapshot) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Last %d days", snap.TimelineDays))}
	if len(snap.Timeline) == 0 {
		lines = append(lines, mutedStyle.Render("No samples in this window."))
		return panelStyle.Render(strings.Join(lines, "\n"))
	}
	lines = append(lines, mutedStyle.Render("date          HR    HRV  stress  fatigue"))
	for _, d := range snap.Timeline {
		lines = append(lines, fmt.Sprintf("%-10s  %5.1f  %5.1f  %6.1f  %7.1f  %s",
			d.Date, d.AvgHR, d.AvgHRV, d.AvgStress, d.AvgFatigue, bar(d.AvgStress)))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// bar draws a percentage as a ten-cell gauge.
func bar(pct float64) string {
	n := int(pct/10 + 0.5)
	n = max(0, min(10, n))
	return strings.Repeat("█", n) + mutedStyle.Render(strings.Repeat("░", 10-n))
}

func (m Model) viewChat(snap client.Snapshot) string {
	vp := m.chatView
	vp.SetContent(chatTranscript(snap.Chat))
	if m.chatFollow {
		vp.GotoBottom()
	}
	body := vp.View()
	if len(snap.Chat) == 0 {
		body = mutedStyle.Render("No messages yet.")
	}
	return panelStyle.Render(body + "\n\n" + renderInput(m.chatInput))
}

func chatTranscript(history []model.ChatExchange) string {
	var lines []string
	for _, ex := range history {
		lines = append(lines, focusStyle.Render("you: ")+ex.UserMessage)
		if ex.Pending() {
			lines = append(lines, mutedStyle.Render("companion is typing…"))
		} else {
			lines = append(lines, "companion: "+*ex.AssistantResponse)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewAlerts(snap client.Snapshot) string {
	if len(snap.Alerts) == 0 {
		return panelStyle.Render(okStyle.Render("No active alerts."))
	}
	var lines []string
	for i, a := range snap.Alerts {
		prefix := "  "
		if i == m.alertCursor {
			prefix = focusStyle.Render("› ")
		}
		lines = append(lines, prefix+levelStyle(a.Level).Render(fmt.Sprintf("L%d", a.Level))+" "+a.Message+
			mutedStyle.Render(" · "+a.CreatedAt.Local().Format(time.DateTime)))
		if i == m.alertCursor {
			for _, f := range a.Factors {
				lines = append(lines, "    - "+f.Message)
			}
			for _, r := range a.Recommendations {
				lines = append(lines, mutedStyle.Render("    → "+r))
			}
		}
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewMission(snap client.Snapshot) string {
	form := m.app.Mission
	ctx, editing := snap.Context, form.Editing()
	if editing {
		ctx = form.Draft()
	}
	values := map[client.ContextField]string{
		client.FieldMissionPhase:    ctx.MissionPhase,
		client.FieldTimeOfDay:       ctx.TimeOfDay,
		client.FieldWorkCycle:       ctx.WorkCycle,
		client.FieldDaysSinceLaunch: strconv.Itoa(ctx.DaysSinceLaunch),
		client.FieldWorkload:        ctx.CurrentWorkload,
	}
	var lines []string
	for i, f := range client.ContextFields {
		line := fmt.Sprintf("%-18s %s", f.String(), values[f])
		if editing && i == m.missionRow {
			line = focusStyle.Render("› " + line + "  ←/→")
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if editing {
		lines = append(lines, "", mutedStyle.Render("editing, enter saves"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewCrew(snap client.Snapshot) string {
	crew := m.app.Crew()
	if len(crew) == 0 {
		return panelStyle.Render(mutedStyle.Render("No crew loaded. Press r to reload."))
	}
	var lines []string
	for i, id := range crew {
		line := id
		if id == snap.Subject {
			line += okStyle.Render("  (viewing)")
		}
		if i == m.crewCursor {
			line = focusStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
