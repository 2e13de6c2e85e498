package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Notifier renders and sends the application's transactional emails.
type Notifier struct {
	sender  Sender
	appName string
}

func NewNotifier(sender Sender, appName string) *Notifier {
	if appName == "" {
		appName = "SprintLite"
	}
	return &Notifier{sender: sender, appName: appName}
}

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(
		`<p>Hi {{.Name}},</p><p>Welcome to {{.App}}. Your account is ready.</p>`))
	roleChangedHTML = template.Must(template.New("role").Parse(
		`<p>Hi {{.Name}},</p><p>Your role in {{.App}} is now <strong>{{.Role}}</strong>. Sign in again for it to take effect.</p>`))
)

type templateData struct {
	Name string
	App  string
	Role string
}

func (n *Notifier) SendWelcome(ctx context.Context, to, name string) error {
	d := templateData{Name: name, App: n.appName}
	html, err := render(welcomeHTML, d)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      to,
		Subject: "Welcome to " + n.appName,
		Text:    fmt.Sprintf("Hi %s,\n\nWelcome to %s. Your account is ready.\n", name, n.appName),
		HTML:    html,
	})
}

func (n *Notifier) SendRoleChanged(ctx context.Context, to, name, role string) error {
	d := templateData{Name: name, App: n.appName, Role: role}
	html, err := render(roleChangedHTML, d)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      to,
		Subject: "Your " + n.appName + " role has changed",
		Text:    fmt.Sprintf("Hi %s,\n\nYour role in %s is now %s. Sign in again for it to take effect.\n", name, n.appName, role),
		HTML:    html,
	})
}

func render(t *template.Template, d templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
