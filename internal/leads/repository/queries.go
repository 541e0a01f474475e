package repository

const leadColumns = `id, tenant_id, customer_name, customer_phone, customer_wechat, address, notes,
	channel_id, contact_id, source, intent_level, status, assigned_sales_id, score,
	estimated_amount::float8, void_reason, converted_customer_id, last_activity_at,
	next_followup_at, created_at, updated_at`

const activityColumns = `id, lead_id, tenant_id, type, content, created_by_user_id,
	next_followup_at, status_override, created_at`

const getLeadQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE id = $1 AND tenant_id = $2`

const lockLeadQuery = getLeadQuery + `
	FOR UPDATE`

const leadExistsQuery = `
	SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1 AND tenant_id = $2)`

const listPoolQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND status = 'PENDING_ASSIGNMENT' AND assigned_sales_id IS NULL
	ORDER BY created_at DESC, id
	LIMIT $2 OFFSET $3`

const listActivitiesQuery = `
	SELECT ` + activityColumns + `
	FROM lead_activities
	WHERE lead_id = $1 AND tenant_id = $2
	ORDER BY created_at ASC, id`

const listStaleAssignedQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1
		AND assigned_sales_id IS NOT NULL
		AND status IN ('PENDING_FOLLOWUP', 'FOLLOWING_UP')
		AND COALESCE(last_activity_at, updated_at) < $2
	ORDER BY COALESCE(last_activity_at, updated_at) ASC, id
	LIMIT $3`

const findActiveByPhoneQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND customer_phone = $2 AND status NOT IN ('WON', 'VOID')
	ORDER BY created_at ASC, id
	LIMIT 1`

const lockPhoneQuery = `
	SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`

const insertLeadQuery = `
	INSERT INTO leads (
		tenant_id, customer_name, customer_phone, customer_wechat, address, notes,
		channel_id, contact_id, source, intent_level, status, assigned_sales_id, score,
		estimated_amount
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING id, created_at, updated_at`

const updateLeadQuery = `
	UPDATE leads SET
		status = $3,
		assigned_sales_id = $4,
		void_reason = $5,
		converted_customer_id = $6,
		last_activity_at = $7,
		next_followup_at = $8,
		updated_at = $9
	WHERE id = $1 AND tenant_id = $2`

const insertActivityQuery = `
	INSERT INTO lead_activities (
		lead_id, tenant_id, type, content, created_by_user_id, next_followup_at, status_override
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at`

const ensureCursorQuery = `
	INSERT INTO lead_distribution_cursors (tenant_id, scope_key)
	VALUES ($1, $2)
	ON CONFLICT (tenant_id, scope_key) DO NOTHING`

const lockCursorQuery = `
	SELECT last_sales_id
	FROM lead_distribution_cursors
	WHERE tenant_id = $1 AND scope_key = $2
	FOR UPDATE`

const saveCursorQuery = `
	UPDATE lead_distribution_cursors
	SET last_sales_id = $3, updated_at = now()
	WHERE tenant_id = $1 AND scope_key = $2`
