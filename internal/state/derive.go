package state

import (
	"sort"
	"time"

	"github.com/kairos-track/kairos/internal/model"
)

// EntryInfo is the denormalized join view of a time entry: the related
// workspace, project, client, task and tags pre-resolved so the UI
// never walks foreign keys itself. Rebuilt whenever the entry or any
// referenced entity changes.
type EntryInfo struct {
	Workspace *model.Workspace
	Project   *model.Project
	Client    *model.Client
	Task      *model.Task
	Tags      []model.Tag
	Color     string
}

// RichTimeEntry pairs an entry with its pre-joined info.
type RichTimeEntry struct {
	Entry model.TimeEntry
	Info  EntryInfo
}

// Rich builds the denormalized view for one entry.
func (s Snapshot) Rich(e model.TimeEntry) RichTimeEntry {
	info := EntryInfo{}
	if ws, ok := s.Workspaces[e.WorkspaceID]; ok {
		info.Workspace = &ws
	}
	if e.ProjectID != nil {
		if p, ok := s.Projects[*e.ProjectID]; ok {
			info.Project = &p
			info.Color = p.Color
			if p.ClientID != nil {
				if c, ok := s.Clients[*p.ClientID]; ok {
					info.Client = &c
				}
			}
		}
	}
	if e.TaskID != nil {
		if t, ok := s.Tasks[*e.TaskID]; ok {
			info.Task = &t
		}
	}
	info.Tags = s.TagsFor(e)
	return RichTimeEntry{Entry: e, Info: info}
}

// TagsFor resolves the entry's tag names against the workspace's tags.
// Matching is by normalized name, not id, so renames and re-creations
// on other devices still resolve.
func (s Snapshot) TagsFor(e model.TimeEntry) []model.Tag {
	if len(e.TagNames) == 0 {
		return nil
	}
	var tags []model.Tag
	for _, name := range e.TagNames {
		want := model.NormalizeTagName(name)
		for _, t := range s.Tags {
			if t.WorkspaceID == e.WorkspaceID && !t.IsDeleted() &&
				model.NormalizeTagName(t.Name) == want {
				tags = append(tags, t)
				break
			}
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

// ActiveEntry returns the single running entry, or a draft when none
// exists. The bool reports whether a real running entry was found.
//
// At most one running entry can exist in any reachable state; if a
// pre-migration store violated that, the earliest-started one wins here
// so the derivation stays deterministic.
func (s Snapshot) ActiveEntry(now time.Time) (model.TimeEntry, bool) {
	var running []model.TimeEntry
	for _, e := range s.TimeEntries {
		if e.State() == model.EntryRunning {
			running = append(running, e)
		}
	}
	if len(running) == 0 {
		return s.Draft(now), false
	}
	sort.Slice(running, func(i, j int) bool {
		if running[i].Start.Equal(running[j].Start) {
			return running[i].ID < running[j].ID
		}
		return running[i].Start.Before(running[j].Start)
	})
	return running[0], true
}

// Draft builds an in-memory, not-yet-persisted entry template from the
// current user's defaults. The draft has an empty local identity; it is
// only persisted once a start or continue operation adopts it.
func (s Snapshot) Draft(now time.Time) model.TimeEntry {
	e := model.TimeEntry{
		Start:        now.UTC(),
		DurationOnly: s.Settings.DurationFormat == DurationDecimal,
	}
	if s.User != nil {
		e.UserID = s.User.ID
		e.UserRemoteID = s.User.RemoteID
		e.WorkspaceID = s.User.DefaultWorkspaceID
		if ws, ok := s.Workspaces[s.User.DefaultWorkspaceID]; ok {
			e.WorkspaceRemoteID = ws.RemoteID
		}
	}
	return e
}

// AccessibleProjects lists active, non-deleted projects in workspaces
// the user belongs to, sorted by name for stable presentation.
func (s Snapshot) AccessibleProjects() []model.Project {
	var out []model.Project
	for _, p := range s.Projects {
		if p.IsDeleted() || !p.Active {
			continue
		}
		if _, ok := s.Workspaces[p.WorkspaceID]; !ok {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RunningCount reports how many entries are currently running. Always
// 0 or 1 in reachable states; exposed for invariant checks in tests.
func (s Snapshot) RunningCount() int {
	n := 0
	for _, e := range s.TimeEntries {
		if e.State() == model.EntryRunning {
			n++
		}
	}
	return n
}
