package component

import (
	"github.com/yanizio/demosite/internal/acl"
	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/config"
	"github.com/yanizio/demosite/internal/demosite"
	"github.com/yanizio/demosite/internal/leads"
	"github.com/yanizio/demosite/internal/preview"
	"github.com/yanizio/demosite/internal/scraper"
	"github.com/yanizio/demosite/internal/session"
)

// Services are the process-wide collaborators handed to every component.
// A component keeps only the ones it uses, usually behind a narrow local
// interface.
type Services struct {
	Config    *config.Config
	ACL       acl.Allower
	Sessions  *session.Manager
	Users     *auth.Users
	DemoSites *demosite.Service
	Preview   *preview.Service
	Leads     *leads.Store
	Scraper   *scraper.Client
}
