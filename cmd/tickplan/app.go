package main

import (
	"fmt"
	"log/slog"

	"github.com/jgao/tickplan/internal/auth"
	"github.com/jgao/tickplan/internal/config"
	"github.com/jgao/tickplan/internal/credential"
	"github.com/jgao/tickplan/internal/dida"
	"github.com/jgao/tickplan/internal/journal"
	"github.com/jgao/tickplan/internal/llm"
	"github.com/jgao/tickplan/internal/planner"
	"github.com/jgao/tickplan/internal/report"
)

// app wires the services a command needs from configuration.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func (a *app) authManager() *auth.Manager {
	store := credential.NewStore(a.cfg.Credential.Path)
	return auth.NewManager(auth.Config{
		ClientID:     a.cfg.OAuth.ClientID,
		ClientSecret: a.cfg.OAuth.ClientSecret,
		AuthURL:      a.cfg.OAuth.AuthURL,
		TokenURL:     a.cfg.OAuth.TokenURL,
		RedirectURL:  a.cfg.OAuth.RedirectURI,
		Scopes:       a.cfg.OAuth.Scopes,
	}, store, a.logger, auth.WithSafetyMargin(a.cfg.OAuth.SafetyMargin()))
}

func (a *app) didaClient() *dida.Client {
	return dida.NewClient(a.cfg.Dida.BaseURL, a.cfg.Dida.InboxID, a.authManager(), a.logger)
}

func (a *app) llmClient() (*llm.Client, error) {
	return llm.NewClient(a.cfg.LLM.BaseURL, a.cfg.LLM.APIKey, a.cfg.LLM.Model, a.logger)
}

func (a *app) journalStore() (*journal.Store, error) {
	return journal.Open(a.cfg.Journal.Path)
}

func (a *app) plannerService() (*planner.Service, error) {
	loc, err := a.cfg.Dida.Location()
	if err != nil {
		return nil, err
	}
	return planner.NewService(a.didaClient(), loc, a.logger), nil
}

func (a *app) reportService(jrnl report.Journal) (*report.Service, error) {
	loc, err := a.cfg.Dida.Location()
	if err != nil {
		return nil, err
	}
	chat, err := a.llmClient()
	if err != nil {
		return nil, err
	}
	return report.NewService(a.didaClient(), chat, jrnl, a.cfg.Reports.Dir, loc, a.logger), nil
}

func (a *app) requireOAuth() error {
	if err := a.cfg.OAuth.ValidateOAuth(); err != nil {
		return fmt.Errorf("%w\nObtain credentials from https://developer.dida365.com/openapi", err)
	}
	return nil
}
