package graph

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// NodePair 无序节点对，pair(a,b) 与 pair(b,a) 相等
type NodePair struct {
	lo, hi Handle
}

// Pair 创建无序节点对
func Pair(a, b Handle) NodePair {
	if a > b {
		a, b = b, a
	}
	return NodePair{lo: a, hi: b}
}

// Nodes 返回两个节点（按编号排序）
func (p NodePair) Nodes() (Handle, Handle) {
	return p.lo, p.hi
}

// Less 稳定排序
func (p NodePair) Less(q NodePair) bool {
	if p.lo != q.lo {
		return p.lo < q.lo
	}
	return p.hi < q.hi
}

// Hash 规范化后的 xxhash
func (p NodePair) Hash() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.lo))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.hi))
	return xxhash.Sum64(buf[:])
}

// String 调试输出
func (p NodePair) String(a *Arena) string {
	return "(" + a.Label(p.lo) + ", " + a.Label(p.hi) + ")"
}
