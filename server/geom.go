package server

import "math"

// Vec2 世界坐标系下的二维向量
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

// Normalized 返回单位向量；零向量无方向，ok=false
func (v Vec2) Normalized() (Vec2, bool) {
	l := v.Len()
	if l == 0 {
		return v, false
	}
	return Vec2{v.X / l, v.Y / l}, true
}

// Finite 校验分量均为有限数，拒绝 NaN/Inf 进入世界状态
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// clampToArena 越界裁剪到 [0,w]x[0,h]
func clampToArena(p Vec2, w, h float64) Vec2 {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.X > w {
		p.X = w
	}
	if p.Y > h {
		p.Y = h
	}
	return p
}

// pointSegDist 点 p 到线段 a->b 的最近距离（子弹扫掠命中判定）
func pointSegDist(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Sub(a).Len()
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := Vec2{a.X + ab.X*t, a.Y + ab.Y*t}
	return p.Sub(closest).Len()
}
