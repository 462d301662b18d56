package domain

import "time"

// ArtifactKind distinguishes submitted requests from uploaded files.
type ArtifactKind string

const (
	ArtifactKindRequest ArtifactKind = "REQUEST"
	ArtifactKindFile    ArtifactKind = "FILE"
)

// ArtifactStatus enumerates lifecycle states for artifacts.
type ArtifactStatus string

const (
	ArtifactStatusDraft         ArtifactStatus = "DRAFT"
	ArtifactStatusPending       ArtifactStatus = "PENDING"
	ArtifactStatusNeedSignature ArtifactStatus = "NEED_SIGNATURE"
	ArtifactStatusSentBack      ArtifactStatus = "SENT_BACK"
	ArtifactStatusApproved      ArtifactStatus = "APPROVED"
	ArtifactStatusRejected      ArtifactStatus = "REJECTED"
)

// ArtifactPriority enumerates urgency levels.
type ArtifactPriority string

const (
	ArtifactPriorityLow    ArtifactPriority = "LOW"
	ArtifactPriorityMedium ArtifactPriority = "MEDIUM"
	ArtifactPriorityHigh   ArtifactPriority = "HIGH"
	ArtifactPriorityUrgent ArtifactPriority = "URGENT"
)

// SignatureType identifies how a signature payload was captured.
type SignatureType string

const (
	SignatureTypeText  SignatureType = "TEXT"
	SignatureTypeImage SignatureType = "IMAGE"
)

// Signature records the one-shot signature on an artifact.
// Immutable once Provided is true.
type Signature struct {
	Type     SignatureType
	Data     string
	SignedBy string
	SignedAt time.Time
}

// Artifact is the aggregate for submitted requests and files.
// Version is bumped on every transition and guards concurrent writers.
type Artifact struct {
	ID                string
	ExternalKey       string
	Kind              ArtifactKind
	CreatedBy         string
	Title             string
	Description       string
	Category          string
	Status            ArtifactStatus
	Priority          ArtifactPriority
	RequiresSignature bool
	Signature         *Signature
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
}

// SignatureProvided reports whether the artifact has been signed.
func (a *Artifact) SignatureProvided() bool {
	return a.Signature != nil
}
