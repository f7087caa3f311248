package views

import (
	"fmt"
	"strings"

	"todosearch/internal/domain"
)

// DashboardRenderer renders the profile summary box
type DashboardRenderer struct {
	styles *Styles
}

// NewDashboardRenderer creates a new dashboard renderer
func NewDashboardRenderer(styles *Styles) *DashboardRenderer {
	return &DashboardRenderer{styles: styles}
}

// RenderDashboard renders d inside a bordered box
func (r *DashboardRenderer) RenderDashboard(d domain.Dashboard) string {
	var b strings.Builder
	name := d.Profile.Name
	if d.Profile.Username != "" {
		name = fmt.Sprintf("%s (@%s)", name, d.Profile.Username)
	}
	b.WriteString(fmt.Sprintf("%s %s\n", r.styles.DashboardKey.Render("User:"), name))
	b.WriteString(fmt.Sprintf("%s %d open\n", r.styles.DashboardKey.Render("Todos:"), d.Notifications))

	mode := "online"
	if d.Settings.Offline {
		mode = "offline"
	}
	completed := "shown"
	if !d.Settings.ShowCompleted {
		completed = "hidden"
	}
	b.WriteString(fmt.Sprintf("%s %s, completed %s, max %d",
		r.styles.DashboardKey.Render("Settings:"), mode, completed, d.Settings.MaxResults))

	return r.styles.DashboardBox.Render(b.String())
}
