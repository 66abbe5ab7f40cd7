package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "ECOSYSTEM_"

type Application struct {
	Host     string       `koanf:"host"`
	Listen   string       `koanf:"listen"`
	Google   Google       `koanf:"google"`
	Session  Session      `koanf:"session"`
	Calendar Calendar     `koanf:"calendar"`
	Display  Display      `koanf:"display"`
	Notices  []NoticeRule `koanf:"notices"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Session struct {
	// Path of the SQLite file keeping the signed-in session across restarts.
	Path string `koanf:"path"`
}

type Calendar struct {
	DenyList             []string `koanf:"denylist"`
	RequiredCalendarId   string   `koanf:"requiredcalendarid"`
	MaxResults           int      `koanf:"maxresults"`
	MaxConcurrentFetches int      `koanf:"maxconcurrentfetches"`
	Timezone             string   `koanf:"timezone"`
	MonthsBefore         int      `koanf:"monthsbefore"`
	MonthsAfter          int      `koanf:"monthsafter"`
	// Refresh is a cron expression for rebuilding the dashboard in the background.
	Refresh string `koanf:"refresh"`
}

type Display struct {
	DateLayout string `koanf:"datelayout"`
	TimeLayout string `koanf:"timelayout"`
}

type NoticeRule struct {
	Keyword  string `koanf:"keyword"`
	Severity string `koanf:"severity"`
	Message  string `koanf:"message"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:8181",
		Listen: "127.0.0.1:8181",
		Session: Session{
			Path: "ecosystem.db",
		},
		Calendar: Calendar{
			DenyList:             []string{"forecast", "weather", "tasks", "project"},
			MaxResults:           250,
			MaxConcurrentFetches: 8,
			Timezone:             "Local",
			MonthsBefore:         1,
			MonthsAfter:          1,
			Refresh:              "*/15 * * * *",
		},
		Display: Display{
			DateLayout: "Monday 2 January 2006",
			TimeLayout: "15:04",
		},
		Notices: []NoticeRule{
			{Keyword: "Blaf en Blij gesloten", Severity: "warning", Message: "Blaf en Blij is vandaag gesloten"},
			{Keyword: "Maya kinderdagverblijf", Severity: "info", Message: "Maya gaat vandaag naar Onder de Boompjes 🌳"},
			{Keyword: "Birthday", Severity: "success", Message: "🥳 Er is vandaag een jarige! 🥳"},
		},
	}
}

func Load(path string) (Application, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("unable to read .env file: %v", err)
	}

	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			if k == "calendar.denylist" {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if err := app.validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Location resolves the configured calendar time zone.
func (a Application) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", a.Calendar.Timezone, err)
	}
	return loc, nil
}

func (a Application) validate() error {
	if a.Calendar.MaxResults <= 0 {
		return fmt.Errorf("calendar.maxresults must be positive, got %d", a.Calendar.MaxResults)
	}
	if a.Calendar.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("calendar.maxconcurrentfetches must be positive, got %d", a.Calendar.MaxConcurrentFetches)
	}
	if a.Calendar.MonthsBefore < 0 || a.Calendar.MonthsAfter < 0 {
		return fmt.Errorf("calendar window months cannot be negative")
	}
	if _, err := a.Location(); err != nil {
		return err
	}
	return nil
}
