package cache

import (
	"context"
	"fmt"
	"time"
)

const courierLocationTTL = 5 * time.Minute

// CourierLocation 骑手实时位置快照
// 由位置流消费端写入，追踪接口读取，过期即视为位置未知。
type CourierLocation struct {
	CourierID uint    `json:"courier_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	UpdatedAt int64   `json:"updated_at"`
}

func courierLocationKey(courierID uint) string {
	return fmt.Sprintf("courier:location:%d", courierID)
}

// GetCourierLocation 获取骑手实时位置
func GetCourierLocation(ctx context.Context, courierID uint) (*CourierLocation, bool, error) {
	if courierID == 0 {
		return nil, false, nil
	}
	var location CourierLocation
	hit, err := GetJSON(ctx, courierLocationKey(courierID), &location)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &location, true, nil
}

// SetCourierLocation 写入骑手实时位置
func SetCourierLocation(ctx context.Context, location *CourierLocation) error {
	if location == nil || location.CourierID == 0 {
		return nil
	}
	if location.UpdatedAt == 0 {
		location.UpdatedAt = time.Now().Unix()
	}
	return SetJSON(ctx, courierLocationKey(location.CourierID), location, courierLocationTTL)
}

// DelCourierLocation 删除骑手实时位置
func DelCourierLocation(ctx context.Context, courierID uint) error {
	if courierID == 0 {
		return nil
	}
	return Del(ctx, courierLocationKey(courierID))
}
