package metadata

// metadata 表中使用的键
const (
	// CatalogOffsetKey 是目录同步的分页游标，同步中断后从这里继续
	CatalogOffsetKey = "catalog_offset"

	// LastCatalogSyncKey 是最近一次完整同步结束的时间 (RFC3339)
	LastCatalogSyncKey = "last_catalog_sync"
)

// Redis 中使用的元数据键
const (
	// RedisListGenerationKey 是排行榜缓存的代数计数器，任何写入都会让它加一
	RedisListGenerationKey = "top:generation"
)
