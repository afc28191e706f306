package model

// Kind names an entity type. Used to tag heterogeneous batches and
// persisted outbox items so they can round-trip through JSON.
type Kind string

const (
	KindWorkspace     Kind = "workspace"
	KindTag           Kind = "tag"
	KindClient        Kind = "client"
	KindProject       Kind = "project"
	KindTask          Kind = "task"
	KindTimeEntry     Kind = "time_entry"
	KindUser          Kind = "user"
	KindWorkspaceUser Kind = "workspace_user"
	KindProjectUser   Kind = "project_user"
)

// BatchOrder lists entity kinds parent-before-child. Remote batches are
// processed in this order so that foreign keys can always resolve
// against rows inserted earlier in the same batch.
var BatchOrder = []Kind{
	KindWorkspace,
	KindTag,
	KindClient,
	KindProject,
	KindTask,
	KindTimeEntry,
	KindUser,
	KindWorkspaceUser,
	KindProjectUser,
}

// Record is implemented by every syncable entity. Entities are plain
// value structs; WithMeta returns a modified copy so shared snapshots
// are never mutated in place.
type Record interface {
	Kind() Kind
	Meta() CommonData
	WithMeta(CommonData) Record
}
