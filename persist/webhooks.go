package persist

import (
	"encoding/json"
	"path"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// appDirName is the directory under the XDG data home holding this
// tool's records.
const appDirName = "amplify-pipeline"

// WebhookRecord is the on-disk form of a created webhook. The webhook
// URL is the only way to trigger a manual-mode deployment, so it is
// recorded the moment it is created.
type WebhookRecord struct {
	RecordID   string    `json:"record_id"`
	WebhookID  string    `json:"webhook_id"`
	URL        string    `json:"url"`
	AppID      string    `json:"app_id"`
	Branch     string    `json:"branch"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WebhookStore persists webhook records.
type WebhookStore struct {
	fsys billy.Filesystem
	now  func() time.Time
}

// NewWebhookStore creates a store over the given filesystem, rooted at
// the directory webhook records live in.
func NewWebhookStore(fsys billy.Filesystem) *WebhookStore {
	return &WebhookStore{fsys: fsys, now: time.Now}
}

// DefaultWebhookStore creates a store under the XDG data home.
func DefaultWebhookStore() *WebhookStore {
	return NewWebhookStore(osfs.New(path.Join(xdg.DataHome, appDirName, "webhooks")))
}

// Record writes a webhook record and returns its filename.
func (s *WebhookStore) Record(hook *amplify.Webhook) (string, error) {
	record := WebhookRecord{
		RecordID:   uuid.NewString(),
		WebhookID:  hook.ID,
		URL:        hook.URL,
		AppID:      hook.AppID,
		Branch:     hook.Branch,
		RecordedAt: s.now().UTC(),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.CodePersistFailed, "could not encode webhook record")
	}

	name := SanitizeFilename(hook.AppID+"-"+hook.Branch) + ".json"
	if err := util.WriteFile(s.fsys, name, data, 0o600); err != nil {
		return "", errors.WrapWithContext(err, errors.CodePersistFailed,
			"could not write webhook record", map[string]any{"file": name})
	}
	return name, nil
}

// Lookup reads the recorded webhook for an application branch. Returns
// nil with no error when no record exists.
func (s *WebhookStore) Lookup(appID, branch string) (*WebhookRecord, error) {
	name := SanitizeFilename(appID+"-"+branch) + ".json"
	data, err := util.ReadFile(s.fsys, name)
	if err != nil {
		return nil, nil
	}
	var record WebhookRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistFailed,
			"corrupt webhook record", map[string]any{"file": name})
	}
	return &record, nil
}
