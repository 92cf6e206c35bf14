package embedding

import "sync"

// Cache 向量缓存
// 键取文本的固定长度前缀：不同长文本共享前缀时会命中同一条目，
// 这是有意的近似策略，不视为缺陷。
// 容量满后按插入顺序淘汰最旧的一条（非 LRU）。
type Cache struct {
	mu        sync.Mutex
	capacity  int
	prefixLen int
	entries   map[string][]float32
	order     []string // 插入顺序
}

// NewCache 创建向量缓存
func NewCache(capacity, prefixLen int) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	if prefixLen <= 0 {
		prefixLen = 100
	}
	return &Cache{
		capacity:  capacity,
		prefixLen: prefixLen,
		entries:   make(map[string][]float32, capacity),
	}
}

// Key 计算文本的缓存键,前缀按字符计数
func (c *Cache) Key(text string) string {
	runes := []rune(text)
	if len(runes) <= c.prefixLen {
		return text
	}
	return string(runes[:c.prefixLen])
}

// Get 查询缓存
func (c *Cache) Get(text string) ([]float32, bool) {
	key := c.Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[key]
	return vec, ok
}

// Put 写入缓存，超出容量时淘汰最旧条目
func (c *Cache) Put(text string, vec []float32) {
	key := c.Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = vec

	if len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len 当前缓存条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
