package view

import (
	"context"
	"errors"
	"log/slog"

	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/router"
	"github.com/trafficmon/trafficmon/sdk"
)

// API is the part of the backend client the page loaders read from.
type API interface {
	Status(ctx context.Context) (*sdk.SystemStatus, error)
	TopTraffic(ctx context.Context) ([]sdk.TrafficSample, error)
	Incidents(ctx context.Context) ([]sdk.Incident, error)
	Rules(ctx context.Context) ([]sdk.Rule, error)
}

// Loaders fetch each page's data fresh from the backend. Failures are logged
// and rendered as a single error row.
type Loaders struct {
	API    API
	Lang   i18n.Lang
	Logger *slog.Logger
}

// Map returns the loader table keyed by page.
func (l Loaders) Map() map[router.Page]router.Loader[Screen] {
	return map[router.Page]router.Loader[Screen]{
		router.Main:       l.Main,
		router.Incidents:  l.Incidents,
		router.Rules:      l.Rules,
		router.Monitoring: l.Monitoring,
	}
}

// Main loads the status cards and the top-traffic table.
func (l Loaders) Main(ctx context.Context) Screen {
	sc := Screen{Page: router.Main, Main: &MainView{}}

	st, err := l.API.Status(ctx)
	if err != nil {
		l.fail(router.Main, "status", err, &sc)
		sc.Main.Cards = CardsOf(nil)
		sc.Main.Traffic = failedTable[TrafficRow](l.errorText(err))
		return sc
	}
	sc.Main.Cards = CardsOf(st)

	samples, err := l.API.TopTraffic(ctx)
	if err != nil {
		l.fail(router.Main, "traffic", err, &sc)
		sc.Main.Traffic = failedTable[TrafficRow](l.errorText(err))
		return sc
	}
	sc.Main.Traffic = tableOf(TrafficRows(samples), i18n.T(l.Lang, i18n.CellNoData))
	return sc
}

// Incidents loads the incidents table.
func (l Loaders) Incidents(ctx context.Context) Screen {
	sc := Screen{Page: router.Incidents}
	incidents, err := l.API.Incidents(ctx)
	var t Table[IncidentRow]
	if err != nil {
		l.fail(router.Incidents, "incidents", err, &sc)
		t = failedTable[IncidentRow](l.errorText(err))
	} else {
		t = tableOf(IncidentRows(l.Lang, incidents), i18n.T(l.Lang, i18n.CellNoIncident))
	}
	sc.Incidents = &t
	return sc
}

// Rules loads the rules table.
func (l Loaders) Rules(ctx context.Context) Screen {
	sc := Screen{Page: router.Rules}
	rules, err := l.API.Rules(ctx)
	var t Table[RuleRow]
	if err != nil {
		l.fail(router.Rules, "rules", err, &sc)
		t = failedTable[RuleRow](l.errorText(err))
	} else {
		t = tableOf(RuleRows(l.Lang, rules), i18n.T(l.Lang, i18n.CellNoRules))
	}
	sc.Rules = &t
	return sc
}

// Monitoring loads the flows table from the top-traffic endpoint, the only
// flow listing the backend exposes.
func (l Loaders) Monitoring(ctx context.Context) Screen {
	sc := Screen{Page: router.Monitoring}
	samples, err := l.API.TopTraffic(ctx)
	var t Table[TrafficRow]
	if err != nil {
		l.fail(router.Monitoring, "traffic", err, &sc)
		t = failedTable[TrafficRow](l.errorText(err))
	} else {
		t = tableOf(TrafficRows(samples), i18n.T(l.Lang, i18n.CellNoData))
	}
	sc.Monitoring = &t
	return sc
}

func (l Loaders) fail(p router.Page, resource string, err error, sc *Screen) {
	if errors.Is(err, sdk.ErrUnauthorized) {
		sc.Unauthorized = true
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("page load failed", "page", p, "resource", resource, "error", err)
}

func (l Loaders) errorText(err error) string {
	return ErrorMessage(l.Lang, err, i18n.ErrLoadFailed)
}
