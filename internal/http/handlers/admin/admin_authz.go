package admin

import (
	"strconv"
	"strings"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) writeAuthzAudit(c *gin.Context, adminID uint, action string, detail models.JSON) {
	audit := &models.AuditLog{
		OperatorAdminID:  adminID,
		OperatorUsername: h.operatorName(adminID),
		Action:           action,
		DetailJSON:       detail,
	}
	if err := h.AuditLogRepo.Create(audit); err != nil {
		requestLog(c).Errorw("audit_log_write_failed", "action", action, "error", err)
	}
}

// AdminListRoles 角色列表
func (h *Handler) AdminListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_failed", err)
		return
	}
	response.Success(c, roles)
}

// AdminRoleRequest 角色创建/删除请求
type AdminRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AdminCreateRole 创建角色
func (h *Handler) AdminCreateRole(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req AdminRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}

	h.writeAuthzAudit(c, adminID, constants.AuditActionAuthzRoleChange, models.JSON{"op": "create", "role": role})
	response.Success(c, gin.H{"role": role})
}

// AdminDeleteRole 删除角色及其策略
func (h *Handler) AdminDeleteRole(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	role := strings.TrimSpace(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}

	h.writeAuthzAudit(c, adminID, constants.AuditActionAuthzRoleChange, models.JSON{"op": "delete", "role": role})
	response.Success(c, nil)
}

// AdminGetRolePolicies 查询角色策略
func (h *Handler) AdminGetRolePolicies(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	response.Success(c, policies)
}

// AdminRolePolicyRequest 角色策略请求
type AdminRolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// AdminGrantRolePolicy 授予角色策略
func (h *Handler) AdminGrantRolePolicy(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	role := strings.TrimSpace(c.Param("role"))
	var req AdminRolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}

	h.writeAuthzAudit(c, adminID, constants.AuditActionAuthzPolicyChange, models.JSON{
		"op":     "grant",
		"role":   role,
		"object": req.Object,
		"action": req.Action,
	})
	response.Success(c, nil)
}

// AdminRevokeRolePolicy 撤销角色策略
func (h *Handler) AdminRevokeRolePolicy(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	role := strings.TrimSpace(c.Param("role"))
	var req AdminRolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}

	h.writeAuthzAudit(c, adminID, constants.AuditActionAuthzPolicyChange, models.JSON{
		"op":     "revoke",
		"role":   role,
		"object": req.Object,
		"action": req.Action,
	})
	response.Success(c, nil)
}

// AdminGetAdminRoles 查询管理员角色
func (h *Handler) AdminGetAdminRoles(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || targetID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(uint(targetID))
	if err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	response.Success(c, roles)
}

// AdminSetAdminRolesRequest 覆盖设置管理员角色请求
type AdminSetAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// AdminSetAdminRoles 覆盖设置管理员角色
func (h *Handler) AdminSetAdminRoles(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || targetID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdminSetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(uint(targetID), req.Roles); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
		return
	}

	h.writeAuthzAudit(c, adminID, constants.AuditActionAuthzRoleChange, models.JSON{
		"op":       "set_admin_roles",
		"admin_id": targetID,
		"roles":    req.Roles,
	})
	response.Success(c, nil)
}
