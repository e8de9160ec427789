package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// SessionsColumns holds the columns for the "sessions" table. The full
	// session record is kept as JSON; the flat columns serve queries.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "start_time", Type: field.TypeTime},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
		{Name: "duration_secs", Type: field.TypeFloat64, Default: 0},
		{Name: "accuracy", Type: field.TypeFloat64, Default: 0},
		{Name: "task_count", Type: field.TypeInt, Default: 0},
		{Name: "attention_score", Type: field.TypeFloat64, Default: 0},
		{Name: "engagement_score", Type: field.TypeFloat64, Default: 0},
		{Name: "math_fluency", Type: field.TypeFloat64, Default: 0},
		{Name: "is_valid", Type: field.TypeBool, Default: false},
		{Name: "record", Type: field.TypeJSON},
	}
	SessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_user_id", Columns: []*schema.Column{SessionsColumns[1]}},
			{Name: "session_start_time", Columns: []*schema.Column{SessionsColumns[2]}},
		},
	}

	// EngagementSnapshotsColumns holds the columns for the
	// "engagement_snapshots" table.
	EngagementSnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "data", Type: field.TypeJSON},
	}
	EngagementSnapshotsTable = &schema.Table{
		Name:       "engagement_snapshots",
		Columns:    EngagementSnapshotsColumns,
		PrimaryKey: []*schema.Column{EngagementSnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "engagementsnapshot_session_id_timestamp", Columns: []*schema.Column{EngagementSnapshotsColumns[1], EngagementSnapshotsColumns[2]}},
		},
	}

	// ProfilesColumns holds the columns for the "profiles" table.
	ProfilesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Unique: true},
		{Name: "condition", Type: field.TypeString, Default: "typical"},
		{Name: "diagnosed", Type: field.TypeJSON},
		{Name: "thresholds", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ProfilesTable = &schema.Table{
		Name:       "profiles",
		Columns:    ProfilesColumns,
		PrimaryKey: []*schema.Column{ProfilesColumns[0]},
	}

	// LearnerModelsColumns holds the columns for the "learner_models" table.
	LearnerModelsColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Unique: true},
		{Name: "data", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	LearnerModelsTable = &schema.Table{
		Name:       "learner_models",
		Columns:    LearnerModelsColumns,
		PrimaryKey: []*schema.Column{LearnerModelsColumns[0]},
	}

	// ProgressColumns holds the columns for the "progress" table.
	ProgressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Unique: true},
		{Name: "level", Type: field.TypeInt, Default: 1},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "coins", Type: field.TypeInt, Default: 0},
		{Name: "badges", Type: field.TypeJSON},
		{Name: "sessions_completed", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ProgressTable = &schema.Table{
		Name:       "progress",
		Columns:    ProgressColumns,
		PrimaryKey: []*schema.Column{ProgressColumns[0]},
	}

	// SurveysColumns holds the columns for the "surveys" table.
	SurveysColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "kind", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	SurveysTable = &schema.Table{
		Name:       "surveys",
		Columns:    SurveysColumns,
		PrimaryKey: []*schema.Column{SurveysColumns[0]},
		Indexes: []*schema.Index{
			{Name: "survey_user_id", Columns: []*schema.Column{SurveysColumns[1]}},
		},
	}

	// AnalysesColumns holds the columns for the "analyses" table.
	AnalysesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString, Default: ""},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "data", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	AnalysesTable = &schema.Table{
		Name:       "analyses",
		Columns:    AnalysesColumns,
		PrimaryKey: []*schema.Column{AnalysesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "analysis_session_id", Columns: []*schema.Column{AnalysesColumns[2]}},
		},
	}

	// LlmEventsColumns holds the columns for the "llm_events" table.
	LlmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString, Default: ""},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	LlmEventsTable = &schema.Table{
		Name:       "llm_events",
		Columns:    LlmEventsColumns,
		PrimaryKey: []*schema.Column{LlmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmevent_purpose", Columns: []*schema.Column{LlmEventsColumns[4]}},
			{Name: "llmevent_timestamp", Columns: []*schema.Column{LlmEventsColumns[1]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		SessionsTable,
		EngagementSnapshotsTable,
		ProfilesTable,
		LearnerModelsTable,
		ProgressTable,
		SurveysTable,
		AnalysesTable,
		LlmEventsTable,
	}
)
