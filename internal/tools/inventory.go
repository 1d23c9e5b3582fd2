package tools

import (
	"github.com/kickai-team/kickai/internal/invite"
	"github.com/kickai-team/kickai/internal/service"
)

// Deps are the collaborators the tool inventory is wired with at startup.
// Every tool receives its dependencies explicitly here; there is no lookup
// by name anywhere.
type Deps struct {
	Services  *service.Services
	Invites   *invite.Service
	Broadcast BroadcastFunc
	Version   string
}

// Inventory assembles the full static tool catalog.
func Inventory(d Deps) []Tool {
	var all []Tool
	all = append(all, systemTools(d.Services, d.Version)...)
	all = append(all, helpTools()...)
	all = append(all, rosterTools(d.Services)...)
	all = append(all, adminTools(d.Services, d.Invites)...)
	all = append(all, matchTools(d.Services)...)
	all = append(all, commsTools(d.Broadcast)...)
	return all
}
