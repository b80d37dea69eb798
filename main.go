// Package main provides the entry point for the Image Labeler application.
package main

import (
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"image-labeler/internal/app"
	"image-labeler/ui/mainwindow"
)

const (
	appID      = "io.imagelabeler"
	appVersion = "0.1.0"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LABELER_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	log.WithField("version", appVersion).Info("starting image labeler")

	fyneApp := fyneapp.NewWithID(appID)

	state := app.NewState(log)
	win := mainwindow.New(fyneApp, state, log)

	// A project path on the command line opens directly.
	if len(os.Args) > 1 {
		if err := state.LoadProject(os.Args[1]); err != nil {
			log.WithError(err).WithField("path", os.Args[1]).Error("failed to load project")
		}
	}

	win.ShowAndRun()
}
