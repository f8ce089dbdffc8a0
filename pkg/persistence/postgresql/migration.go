package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow rule definitions. Trigger and actions are stored as
			-- JSONB documents; matching reads trigger->>'type'.
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'inactive')),
				trigger_def JSONB NOT NULL,
				actions JSONB NOT NULL DEFAULT '[]',
				owner VARCHAR(255),
				execution_count BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_owner ON workflows(owner);
			CREATE INDEX idx_workflows_trigger_type ON workflows((trigger_def->>'type'));
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			-- Execution ledger. One row per firing; per-action logs live in
			-- the action_logs JSONB array and are rewritten after each step.
			CREATE TABLE execution_runs (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				workflow_name VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(100) NOT NULL,
				trigger_data JSONB NOT NULL DEFAULT '{}',
				status VARCHAR(50) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				action_logs JSONB NOT NULL DEFAULT '[]',
				error TEXT NOT NULL DEFAULT '',
				error_stack TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_execution_runs_workflow_id ON execution_runs(workflow_id);
			CREATE INDEX idx_execution_runs_status ON execution_runs(status);
			CREATE INDEX idx_execution_runs_started_at ON execution_runs(started_at);

			-- Outbound webhook subscriptions.
			CREATE TABLE webhook_subscriptions (
				id UUID PRIMARY KEY,
				scope VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				url TEXT NOT NULL,
				secret TEXT NOT NULL,
				events JSONB NOT NULL DEFAULT '[]',
				channel_filter VARCHAR(255) NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT TRUE,
				timeout_ms INT NOT NULL DEFAULT 0,
				max_retries INT NOT NULL DEFAULT 0,
				last_triggered TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_webhook_subscriptions_scope ON webhook_subscriptions(scope);
			CREATE INDEX idx_webhook_subscriptions_active ON webhook_subscriptions(active);
		`,
	}
}
