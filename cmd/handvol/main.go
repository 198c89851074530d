package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/handvol/internal/app"
	"github.com/ayusman/handvol/internal/audio"
	"github.com/ayusman/handvol/internal/config"
	"github.com/ayusman/handvol/internal/dashboard"
	"github.com/ayusman/handvol/internal/plugin"
	"github.com/ayusman/handvol/internal/server"
	"github.com/ayusman/handvol/internal/store"
	"github.com/ayusman/handvol/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (default ~/.handvol/config.yaml when present)")
	addr := flag.String("addr", "", "HTTP listen address, overrides server.addr")
	cameraID := flag.Int("camera", -1, "camera device id, overrides camera.device")
	dbPath := flag.String("db", "", "SQLite database path, overrides store.path")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("handvol - Gesture Volume Control")

	cfg, watchPath, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *cameraID >= 0 {
		cfg.Camera.DeviceID = *cameraID
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a := app.New(cfg.App(), openAudio(cfg))
	a.SetRecorder(sessionRecorder{sessions: st.Sessions()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchPath != "" {
		err := config.Watch(ctx, watchPath, func(c *config.Config) {
			a.SetTuning(c.Session())
			log.Println("New tuning applies from the next session")
		})
		if err != nil {
			log.Printf("Config reload disabled: %v", err)
		}
	}

	refresher := dashboard.New(a.State(), cfg.Dashboard.RefreshInterval)
	latest := dashboard.NewLatest()
	hub := server.NewHub()
	refresher.Register("stream", latest)
	refresher.Register("live", hub)

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findDir("web")
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		State:     a.State(),
		Latest:    latest,
		Hub:       hub,
		Control:   a,
		Store:     st,
	})
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if *headless {
		go refresher.Run(ctx)
		<-ctx.Done()
	} else {
		t := tray.New()
		refresher.Register("tray", t)
		a.OnStateChange(t.SetRunning)
		t.OnToggle(func(start bool) {
			// Start blocks until the devices are acquired; keep the menu responsive.
			go func() {
				if !start {
					a.Stop()
					return
				}
				if err := a.Start(localUser()); err != nil {
					log.Printf("Failed to start session: %v", err)
				}
			}()
		})
		t.OnDashboard(func() { openBrowser(dashboardURL(cfg.Server.Addr)) })
		t.OnQuit(stop)

		go refresher.Run(ctx)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	}

	log.Println("Shutting down")
	if err := a.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}

// loadConfig loads path, or ~/.handvol/config.yaml when path is empty and
// that file exists, or the defaults. It returns the file to watch, if any.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		candidate := filepath.Join(config.DataDir(), "config.yaml")
		if _, err := os.Stat(candidate); err != nil {
			cfg := config.Default()
			return &cfg, "", nil
		}
		path = candidate
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	fmt.Printf("Loaded config from: %s\n", path)
	return cfg, path, nil
}

// openAudio sets up the configured audio plugin. When it is missing the
// returned device fails every session start with audio.ErrUnavailable.
func openAudio(cfg *config.Config) audio.Device {
	dir := cfg.Plugins.Dir
	if !filepath.IsAbs(dir) {
		if found := findDir(dir); found != "" {
			dir = found
		}
	}

	mgr := plugin.NewManager(dir)
	if err := mgr.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
		return audio.Missing{Reason: err}
	}

	p, err := mgr.Require(cfg.Plugins.Audio, audio.ActionRange, audio.ActionGet, audio.ActionSet)
	if err != nil {
		log.Printf("Audio plugin unavailable: %v", err)
		return audio.Missing{Reason: err}
	}

	log.Printf("Using audio plugin %s %s", p.Manifest.Name, p.Manifest.Version)
	return audio.NewPluginDevice(plugin.NewExecutor(cfg.Plugins.Timeout), p, cfg.Plugins.LevelRefresh)
}

// findDir searches for a directory in common locations.
// It checks: name, ../name, ../../name, and ~/.handvol/name.
// Returns the first existing directory or empty string if none found.
func findDir(name string) string {
	for _, p := range []string{name, filepath.Join("..", name), filepath.Join("..", "..", name)} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home := filepath.Join(config.DataDir(), name)
	if info, err := os.Stat(home); err == nil && info.IsDir() {
		return home
	}

	return ""
}

func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/charts"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
