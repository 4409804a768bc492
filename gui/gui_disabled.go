//go:build !gui

package gui

import (
	"errors"

	"github.com/avnlearn/manim-recorder/config"
)

type App struct{}

func NewApp(config.Config) (*App, error) {
	return nil, errors.New("built without GUI support (rebuild with -tags gui)")
}

func (a *App) Run() error {
	return errors.New("built without GUI support (rebuild with -tags gui)")
}

func (a *App) Record(dir, prompt string) (string, error) {
	return "", errors.New("built without GUI support (rebuild with -tags gui)")
}
