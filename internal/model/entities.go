package model

// Workspace is the root of the entity graph; every other syncable row
// belongs to exactly one workspace.
type Workspace struct {
	CommonData `gorm:"embedded"`

	Name            string  `json:"name"`
	Admin           bool    `json:"admin"`
	DefaultHourly   float64 `json:"default_hourly"`
	DefaultCurrency string  `json:"default_currency"`
}

func (w Workspace) Kind() Kind                   { return KindWorkspace }
func (w Workspace) Meta() CommonData             { return w.CommonData }
func (w Workspace) WithMeta(c CommonData) Record { w.CommonData = c; return w }

// Client groups projects under a customer name.
type Client struct {
	CommonData `gorm:"embedded"`

	Name              string `json:"name"`
	WorkspaceID       string `gorm:"index" json:"workspace_id"`
	WorkspaceRemoteID *int64 `json:"workspace_remote_id"`
}

func (c Client) Kind() Kind                   { return KindClient }
func (c Client) Meta() CommonData             { return c.CommonData }
func (c Client) WithMeta(m CommonData) Record { c.CommonData = m; return c }

// Project is an optionally client-scoped bucket for time entries.
type Project struct {
	CommonData `gorm:"embedded"`

	Name              string  `json:"name"`
	Color             string  `json:"color"`
	Active            bool    `json:"active"`
	Billable          bool    `json:"billable"`
	WorkspaceID       string  `gorm:"index" json:"workspace_id"`
	WorkspaceRemoteID *int64  `json:"workspace_remote_id"`
	ClientID          *string `gorm:"index" json:"client_id"`
	ClientRemoteID    *int64  `json:"client_remote_id"`
}

func (p Project) Kind() Kind                   { return KindProject }
func (p Project) Meta() CommonData             { return p.CommonData }
func (p Project) WithMeta(m CommonData) Record { p.CommonData = m; return p }

// Task is a sub-item of a project.
type Task struct {
	CommonData `gorm:"embedded"`

	Name              string `json:"name"`
	Active            bool   `json:"active"`
	WorkspaceID       string `gorm:"index" json:"workspace_id"`
	WorkspaceRemoteID *int64 `json:"workspace_remote_id"`
	ProjectID         string `gorm:"index" json:"project_id"`
	ProjectRemoteID   *int64 `json:"project_remote_id"`
}

func (t Task) Kind() Kind                   { return KindTask }
func (t Task) Meta() CommonData             { return t.CommonData }
func (t Task) WithMeta(m CommonData) Record { t.CommonData = m; return t }

// Tag labels time entries. Entries reference tags by normalized name
// within a workspace, not by id, so renames never dangle.
type Tag struct {
	CommonData `gorm:"embedded"`

	Name              string `json:"name"`
	WorkspaceID       string `gorm:"index" json:"workspace_id"`
	WorkspaceRemoteID *int64 `json:"workspace_remote_id"`
}

func (t Tag) Kind() Kind                   { return KindTag }
func (t Tag) Meta() CommonData             { return t.CommonData }
func (t Tag) WithMeta(m CommonData) Record { t.CommonData = m; return t }

// User is the authenticated account. At most one row exists locally.
type User struct {
	CommonData `gorm:"embedded"`

	Email                    string `json:"email"`
	Fullname                 string `json:"fullname"`
	APIToken                 string `json:"api_token"`
	DefaultWorkspaceID       string `json:"default_workspace_id"`
	DefaultWorkspaceRemoteID *int64 `json:"default_workspace_remote_id"`
	BeginningOfWeek          int    `json:"beginning_of_week"`
}

func (u User) Kind() Kind                   { return KindUser }
func (u User) Meta() CommonData             { return u.CommonData }
func (u User) WithMeta(m CommonData) Record { u.CommonData = m; return u }

// WorkspaceUser is the membership join between a user and a workspace.
type WorkspaceUser struct {
	CommonData `gorm:"embedded"`

	WorkspaceID       string `gorm:"index" json:"workspace_id"`
	WorkspaceRemoteID *int64 `json:"workspace_remote_id"`
	UserID            string `gorm:"index" json:"user_id"`
	UserRemoteID      *int64 `json:"user_remote_id"`
	Admin             bool   `json:"admin"`
	Active            bool   `json:"active"`
}

func (w WorkspaceUser) Kind() Kind                   { return KindWorkspaceUser }
func (w WorkspaceUser) Meta() CommonData             { return w.CommonData }
func (w WorkspaceUser) WithMeta(m CommonData) Record { w.CommonData = m; return w }

// ProjectUser is the membership join between a user and a project.
type ProjectUser struct {
	CommonData `gorm:"embedded"`

	ProjectID       string  `gorm:"index" json:"project_id"`
	ProjectRemoteID *int64  `json:"project_remote_id"`
	UserID          string  `gorm:"index" json:"user_id"`
	UserRemoteID    *int64  `json:"user_remote_id"`
	Manager         bool    `json:"manager"`
	HourlyRate      float64 `json:"hourly_rate"`
}

func (p ProjectUser) Kind() Kind                   { return KindProjectUser }
func (p ProjectUser) Meta() CommonData             { return p.CommonData }
func (p ProjectUser) WithMeta(m CommonData) Record { p.CommonData = m; return p }
