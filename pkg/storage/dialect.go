package storage

// Dialect SQL方言接口
// 封装不同数据库在驱动名、建表类型和连接配置上的差异，占位符由sqlx按驱动自动转换
type Dialect interface {
	// Name 方言名称（sqlite/mysql/postgres）
	Name() string

	// DriverName database/sql驱动名
	DriverName() string

	// AutoIncrementKeyword 自增主键定义
	// SQLite: INTEGER PRIMARY KEY AUTOINCREMENT
	// MySQL: BIGINT PRIMARY KEY AUTO_INCREMENT
	// PostgreSQL: BIGSERIAL PRIMARY KEY
	AutoIncrementKeyword() string

	// KeyType 可建唯一索引的字符串类型
	KeyType() string

	// TextType 长文本类型
	TextType() string

	// FloatType 浮点类型
	FloatType() string

	// ConfigureDB 连接建立后需要执行的语句（如SQLite的PRAGMA）
	ConfigureDB() []string
}
