package cli

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"time"

	"github.com/axellelanca/linkquota/cmd"
	"github.com/axellelanca/linkquota/internal/app"
	"github.com/axellelanca/linkquota/internal/models"
)

// userIDFlag is shared by every command acting on behalf of a user.
var userIDFlag string

// singleProcessNote is appended to the help of commands that change links.
const singleProcessNote = `
Each process keeps its own in-memory index of links, loaded at startup.
Do not run this command against the database of a running 'run-server':
the server would not see the change until it restarts.`

// openApp builds the application from the loaded configuration.
// Callers must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cmd.Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, nil
}

// openBrowser hands url to the desktop's default browser.
var openBrowser = func(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	return c.Start()
}

// printLink writes one link in the listing format.
func printLink(w io.Writer, a *app.App, link *models.Link) {
	status := "active"
	switch {
	case link.IsExpired(time.Now()):
		status = "expired"
	case !link.Active:
		status = "inactive"
	}
	fmt.Fprintf(w, "%s  %s\n", link.ShortCode, a.Cfg.ShortURL(link.ShortCode))
	fmt.Fprintf(w, "    -> %s\n", link.LongURL)
	fmt.Fprintf(w, "    clicks %d/%d, %s, expires %s\n",
		link.ClickCount, link.MaxClicks, status, link.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
}
