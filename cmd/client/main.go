// Command client is a terminal front end over the same flow packages the API
// serves. It signs in with a phone number, uploads a photo batch from a local
// directory, browses the rating list, and can delete the account. With no
// platform key configured it runs fully in memory and prints verification
// codes to the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fixmyhinge/fixmyhinge/internal/config"
	"github.com/fixmyhinge/fixmyhinge/internal/deletion"
	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/intake"
	"github.com/fixmyhinge/fixmyhinge/internal/logging"
	"github.com/fixmyhinge/fixmyhinge/internal/login"
	"github.com/fixmyhinge/fixmyhinge/internal/notification"
	"github.com/fixmyhinge/fixmyhinge/internal/photo"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
	"github.com/fixmyhinge/fixmyhinge/internal/session"
	"github.com/fixmyhinge/fixmyhinge/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	var provider identity.Provider
	if cfg.PlatformAPIKey != "" {
		provider = identity.NewHostedProvider(cfg.PlatformBaseURL, cfg.PlatformAPIKey)
	} else {
		provider = identity.NewMemoryProvider(notification.NewLoggerNotifier(logger))
	}
	profiles := profile.NewMemoryRepository()
	photos := photo.NewMemoryRepository()
	objects := storage.NewMemoryStore()

	store := session.New(provider, profiles, logger)
	defer store.Close()

	cli := &client{
		in:       bufio.NewScanner(os.Stdin),
		cfg:      cfg,
		provider: provider,
		profiles: profiles,
		listing:  profile.NewService(profiles, logger),
		uploader: intake.NewUploader(objects, photos, profiles),
		cascade:  deletion.NewCascade(objects, photos, profiles, provider, logger),
		store:    store,
	}
	cli.run(context.Background())
}

type client struct {
	in       *bufio.Scanner
	cfg      config.Config
	provider identity.Provider
	profiles profile.Repository
	listing  *profile.Service
	uploader *intake.Uploader
	cascade  *deletion.Cascade
	store    *session.Store
	sess     identity.Session
}

func (c *client) run(ctx context.Context) {
	// Hold rendering until the provider's first notification lands.
	ready := make(chan struct{})
	var once sync.Once
	unsub := c.store.Subscribe(func(snap session.Snapshot) {
		if !snap.Loading {
			once.Do(func() { close(ready) })
		}
	})
	defer unsub()
	if c.store.Current().Loading {
		<-ready
	}

	for {
		verdict := session.Evaluate(c.store.Current(), "/")
		switch verdict.Decision {
		case session.DecisionWait:
			continue
		case session.DecisionRedirect:
			if !c.login(ctx) {
				return
			}
		case session.DecisionAllow:
			if !c.menu(ctx) {
				return
			}
		}
	}
}

// login drives the three-step sign-in flow until a session exists or the
// user gives up.
func (c *client) login(ctx context.Context) bool {
	flow := login.NewFlow(c.provider, c.profiles)
	for flow.Step() != login.StepDone {
		if flow.Message != "" {
			fmt.Println(flow.Message)
		}
		switch flow.Step() {
		case login.StepPhone:
			fmt.Print("Country code (+1, +44, +61): ")
			code, ok := c.read()
			if !ok {
				return false
			}
			cc, found := login.LookupCountryCode(strings.TrimSpace(code))
			if !found {
				fmt.Println("Unknown country code")
				continue
			}
			fmt.Print("Phone number: ")
			digits, ok := c.read()
			if !ok {
				return false
			}
			if err := flow.SubmitPhone(ctx, cc, digits, identity.Proof("terminal")); err != nil {
				continue
			}
		case login.StepCode:
			fmt.Printf("Enter the %d-digit code: ", login.CodeLength)
			raw, ok := c.read()
			if !ok {
				return false
			}
			var input login.CodeInput
			input.Fill(raw)
			if !input.Complete() {
				fmt.Println(login.MsgInvalidCode)
				continue
			}
			if err := flow.SubmitCode(ctx, input.String()); err != nil {
				continue
			}
		case login.StepName:
			fmt.Print("Your name: ")
			name, ok := c.read()
			if !ok {
				return false
			}
			if err := flow.SubmitName(ctx, name); err != nil {
				continue
			}
		}
	}
	c.sess = flow.Session()
	fmt.Printf("Signed in as %s\n", c.sess.Identity.PhoneNumber)
	return true
}

func (c *client) menu(ctx context.Context) bool {
	fmt.Println("\n[1] browse profiles  [2] upload photos  [3] delete account  [4] sign out  [q] quit")
	fmt.Print("> ")
	choice, ok := c.read()
	if !ok {
		return false
	}
	switch strings.TrimSpace(choice) {
	case "1":
		c.browse(ctx)
	case "2":
		c.upload(ctx)
	case "3":
		c.deleteAccount(ctx)
	case "4":
		if err := c.store.Logout(ctx, c.sess); err != nil {
			fmt.Println("Sign out failed:", err)
		}
	case "q":
		return false
	}
	return true
}

func (c *client) browse(ctx context.Context) {
	summaries, err := c.listing.List(ctx, c.sess.Identity.ID)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(summaries) == 0 {
		fmt.Println("No profiles with photos yet.")
		return
	}
	for _, s := range summaries {
		fmt.Printf("%-20s %d photos\n", s.Name, s.PhotoCount)
	}
}

// upload reads every regular file in a directory into a selection and runs
// the sequential batch upload with a progress line per photo.
func (c *client) upload(ctx context.Context) {
	fmt.Print("Directory of photos: ")
	dir, ok := c.read()
	if !ok {
		return
	}
	files, err := readDir(strings.TrimSpace(dir))
	if err != nil {
		fmt.Println("Read directory failed:", err)
		return
	}

	sel := intake.NewSelection(c.cfg.MinPhotos, c.cfg.MaxPhotos)
	if err := sel.Add(files...); err != nil {
		fmt.Println(err)
		return
	}
	err = c.uploader.Upload(ctx, c.sess.Identity.ID, sel, func(p intake.Progress) {
		fmt.Printf("Uploading photo %d of %d...\n", p.Completed, p.Total)
	})
	if err != nil {
		fmt.Println("Error uploading photos:", err)
		return
	}
	fmt.Println("Photos uploaded.")
}

func (c *client) deleteAccount(ctx context.Context) {
	flow := deletion.NewFlow(c.provider, c.cascade, c.sess)

	fmt.Print("Delete your account and all photos? Type 'delete' to confirm: ")
	answer, ok := c.read()
	if !ok || strings.TrimSpace(answer) != "delete" {
		flow.Cancel()
		return
	}
	// First call records intent, second opens verification.
	flow.RequestDeletion()
	flow.RequestDeletion()

	if err := flow.BeginVerification(ctx, identity.Proof("terminal")); err != nil {
		fmt.Println(flow.Message)
		return
	}
	fmt.Printf("A code was sent to %s.\n", c.sess.Identity.PhoneNumber)
	fmt.Print("Code: ")
	code, ok := c.read()
	if !ok {
		flow.Cancel()
		return
	}
	if err := flow.SubmitCode(ctx, strings.TrimSpace(code)); err != nil {
		fmt.Println(flow.Message)
		return
	}
	for _, r := range flow.Results {
		fmt.Printf("  %s: %s (%d deleted, %d failed)\n", r.Step, r.Status, r.Deleted, r.Failed)
	}
	fmt.Println("Account deleted.")
}

func (c *client) read() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func readDir(dir string) ([]intake.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []intake.File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		ct := mime.TypeByExtension(filepath.Ext(e.Name()))
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, intake.File{Name: e.Name(), Data: data, ContentType: ct})
	}
	return files, nil
}
