// internal/workers/funnel/notify-funnel-owner/message.go
package notifyfunnelowner

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var emailHTML = template.Must(template.New("email").Parse(
	`<p>Your funnel <strong>{{.Name}}</strong> is ready.</p>` +
		`<p><a href="{{.Link}}">Open blueprint {{.BlueprintID}}</a></p>`))

type messageData struct {
	Name        string
	BlueprintID string
	Link        string
}

func newMessageData(cfg *Config, input *Input) messageData {
	name := strings.TrimSpace(input.FunnelName)
	if name == "" {
		name = "blueprint"
	}
	return messageData{
		Name:        name,
		BlueprintID: input.BlueprintID,
		Link:        strings.TrimRight(cfg.DashboardURL, "/") + "/" + input.BlueprintID,
	}
}

func (d messageData) subject() string {
	return fmt.Sprintf("Your funnel %q is ready", d.Name)
}

func (d messageData) text() string {
	return fmt.Sprintf("Your funnel %q is ready.\nOpen it at %s\n", d.Name, d.Link)
}

func (d messageData) html() (string, error) {
	var buf bytes.Buffer
	if err := emailHTML.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (d messageData) sms() string {
	return fmt.Sprintf("Your funnel %q is ready: %s", d.Name, d.Link)
}
