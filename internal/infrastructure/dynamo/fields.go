package dynamo

// DynamoDB attribute names used in update expressions across all repos.
const (
	fieldEnable           = "enable"
	fieldUpdatedAt        = "updated_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldVersion          = "version"
)

// Secondary index names.
const (
	indexEmail        = "email-index"
	indexRole         = "role-index"
	indexBrokerID     = "broker_id-index"
	indexRefreshToken = "refresh_token-index"
	indexCustomerID   = "customer_id-created_at-index"
	indexWorkerID     = "worker_id-created_at-index"
	indexOrderBroker  = "broker_id-created_at-index"
)
