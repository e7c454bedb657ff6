package domain

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
)

// Record keys in the store. Every registered repository owns a hash at
// RecordKey(id); the url→key mapping lives under the raw url itself.
const (
	RecordKeyPrefix = "git_repo_id:"
	CounterKey      = "git_repo_id:id"
)

// Record hash fields.
const (
	FieldURL             = "url"
	FieldBranch          = "branch"
	FieldRevision        = "revision"
	FieldRecentCommitter = "recent_committer"
	FieldCurrentRevision = "current_revision"
	FieldLastMessages    = "last_5_messages"
	FieldTotalFiles      = "total_files"
	FieldDiskUsage       = "disk_usage"
	FieldLastCheckout    = "last_checkout"
)

// DefaultBranch is checked out when a registration names none.
const DefaultBranch = "master"

// CheckoutTimeLayout is the human-readable format of last_checkout.
const CheckoutTimeLayout = "Mon, 02 Jan 2006 15:04:05"

// RecordKey builds the record hash key for a numeric identity.
func RecordKey(id int64) string {
	return RecordKeyPrefix + strconv.FormatInt(id, 10)
}

// RecordID parses the numeric identity out of a record key.
func RecordID(key string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(key, RecordKeyPrefix), 10, 64)
}

// WorkingCopyPath derives the on-disk checkout location of a repository
// from the trailing path segment of its url. The result always lies
// directly under basePath; segments that would traverse out of it are
// replaced.
func WorkingCopyPath(basePath, url string) string {
	trimmed := strings.TrimSuffix(url, "/")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return filepath.Join(basePath, name)
}

// RepoSpec is the caller-supplied configuration of a registration.
type RepoSpec struct {
	URL      string `json:"url"`
	Branch   string `json:"branch"`
	Revision string `json:"revision"`
}

// Fields returns the record fields to store for this registration.
// Empty branch/revision are omitted so a re-registration without them
// leaves the stored values alone.
func (s RepoSpec) Fields() map[string]any {
	fields := map[string]any{FieldURL: s.URL}
	if s.Branch != "" {
		fields[FieldBranch] = s.Branch
	}
	if s.Revision != "" {
		fields[FieldRevision] = s.Revision
	}
	return fields
}

// Commit is one entry of a repository's history.
type Commit struct {
	Hash      string `json:"hash"`
	Committer string `json:"committer"`
	Message   string `json:"message"`
}

// Stats holds the derived numbers written back after a successful
// materialization.
type Stats struct {
	DiskUsage       string
	LastCheckout    string
	RecentCommitter string
	CurrentRevision string
	LastMessages    []string
	TotalFiles      int
}

// Fields returns the record fields for these stats. The message list is
// JSON-encoded into a single hash field.
func (s Stats) Fields() map[string]any {
	msgs, _ := json.Marshal(s.LastMessages)
	return map[string]any{
		FieldRecentCommitter: s.RecentCommitter,
		FieldCurrentRevision: s.CurrentRevision,
		FieldLastMessages:    string(msgs),
		FieldTotalFiles:      s.TotalFiles,
		FieldDiskUsage:       s.DiskUsage,
		FieldLastCheckout:    s.LastCheckout,
	}
}

// Materialization statuses published on the event stream.
const (
	StatusMaterializing = "materializing"
	StatusReady         = "ready"
	StatusError         = "error"
)

// RepoEvent represents a materialization status change.
type RepoEvent struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}
