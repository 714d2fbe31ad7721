package service

import "github.com/golang-jwt/jwt/v5"

// Token 由外部账号体系签发，服务端只做校验与吊销检查。

// JWTClaims 管理员 Token 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// UserJWTClaims 用户 Token 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// CourierJWTClaims 骑手 Token 声明
type CourierJWTClaims struct {
	CourierID    uint   `json:"courier_id"`
	Name         string `json:"name"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}
