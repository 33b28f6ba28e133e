package domain

import "time"

type ActivityKind string

const (
	ActivitySignup          ActivityKind = "signup"
	ActivitySeriesDuplicate ActivityKind = "series_duplicated"
	ActivitySeriesStarted   ActivityKind = "series_started"
	ActivitySeriesCompleted ActivityKind = "series_completed"
	ActivityContentPublish  ActivityKind = "content_published"
	ActivityReferral        ActivityKind = "referral_signup"
	ActivityProfileSetup    ActivityKind = "profile_setup"
)

type Activity struct {
	ID        string       `json:"id" yaml:"id"`
	UserID    string       `json:"userId" yaml:"userId"`
	UserName  string       `json:"userName" yaml:"userName"`
	Kind      ActivityKind `json:"kind" yaml:"kind"`
	Message   string       `json:"message" yaml:"message"`
	TargetID  string       `json:"targetId,omitempty" yaml:"targetId"`
	CreatedAt time.Time    `json:"createdAt" yaml:"createdAt"`
}
