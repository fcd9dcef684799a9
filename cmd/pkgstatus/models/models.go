package models

// Packager is a maintainer identity linked to a Telegram account.
// Packagers are provisioned out-of-band; the engine only reads them.
type Packager struct {
	TgUID int64
	Alias string
}

// Package is a tracked distribution package
type Package struct {
	ID   int64
	Name string
}

// Assignment is the ownership link from a packager to a package
type Assignment struct {
	ID         int64
	PackageID  int64
	PackagerID int64
	AssignedAt int64
}

// Mark is a named status tag attached to a package. Duplicate
// (package, name) rows are possible and tolerated.
type Mark struct {
	ID        int64
	Name      string
	Comment   string
	MsgID     int64
	MarkedBy  *int64
	MarkedAt  int64
	PackageID int64
}

// PackageRelation is a directed blocking edge: Request depends on
// Required and cannot build until it is done.
type PackageRelation struct {
	Relation  string
	Request   Package
	Required  Package
	CreatedBy *Packager
}

// WorkListUnit is one packager with their assigned package names.
// JSON field names keep compatibility with the old dashboard API.
type WorkListUnit struct {
	Alias    string   `json:"alias"`
	Packages []string `json:"packages"`
}

// MarkView is a mark with its author resolved to an alias
type MarkView struct {
	Name     string  `json:"name"`
	MarkedAt int64   `json:"marked_at"`
	By       *string `json:"by,omitempty"`
	MsgID    int64   `json:"msg_id"`
	Comment  string  `json:"comment"`
}

// MarkListUnit is one package with all of its marks
type MarkListUnit struct {
	Name  string     `json:"name"`
	Marks []MarkView `json:"marks"`
}

// StatusReport is the dashboard snapshot
type StatusReport struct {
	WorkList []WorkListUnit `json:"workList"`
	MarkList []MarkListUnit `json:"markList"`
}

// WorkflowOutcome is the caller-visible result of a trigger workflow
type WorkflowOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
