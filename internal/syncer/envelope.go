package syncer

import (
	"encoding/json"
	"fmt"

	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/reducer"
)

// envelope is the persisted outbox payload: the remote action plus the
// record serialized as its storage row shape. The kind tag lets
// heterogeneous queue items deserialize back to their concrete type on
// replay.
type envelope struct {
	Action  reducer.PushAction `json:"action"`
	Kind    model.Kind         `json:"kind"`
	RawData json.RawMessage    `json:"raw_data"`
}

func encodeEnvelope(action reducer.PushAction, rec model.Record) (string, []byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", rec.Kind(), err)
	}
	env := envelope{Action: action, Kind: rec.Kind(), RawData: raw}
	blob, err := json.Marshal(env)
	if err != nil {
		return "", nil, fmt.Errorf("encode envelope: %w", err)
	}
	return string(rec.Kind()), blob, nil
}

func decodeEnvelope(blob []byte) (reducer.PushAction, model.Record, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return 0, nil, fmt.Errorf("decode envelope: %w", err)
	}
	rec, err := decodeRecord(env.Kind, env.RawData)
	if err != nil {
		return 0, nil, err
	}
	return env.Action, rec, nil
}

func decodeRecord(kind model.Kind, raw []byte) (model.Record, error) {
	switch kind {
	case model.KindWorkspace:
		var r model.Workspace
		return unmarshalInto(raw, &r)
	case model.KindTag:
		var r model.Tag
		return unmarshalInto(raw, &r)
	case model.KindClient:
		var r model.Client
		return unmarshalInto(raw, &r)
	case model.KindProject:
		var r model.Project
		return unmarshalInto(raw, &r)
	case model.KindTask:
		var r model.Task
		return unmarshalInto(raw, &r)
	case model.KindTimeEntry:
		var r model.TimeEntry
		return unmarshalInto(raw, &r)
	case model.KindUser:
		var r model.User
		return unmarshalInto(raw, &r)
	case model.KindWorkspaceUser:
		var r model.WorkspaceUser
		return unmarshalInto(raw, &r)
	case model.KindProjectUser:
		var r model.ProjectUser
		return unmarshalInto(raw, &r)
	default:
		return nil, fmt.Errorf("unknown queued kind %q", kind)
	}
}

func unmarshalInto[T model.Record](raw []byte, dst *T) (model.Record, error) {
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("decode %s: %w", (*dst).Kind(), err)
	}
	return *dst, nil
}
