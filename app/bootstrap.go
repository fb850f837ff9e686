// app/bootstrap.go
package app

import (
	"context"
	"errors"
	"log"

	"item_custody_service/db"
	"item_custody_service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BootstrapDepartment 首次启动时种一个部门和它的负责人，
// 否则没人能审批。已存在则跳过。
func BootstrapDepartment(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapDept == "" || cfg.BootstrapHead == "" {
		return
	}

	if _, err := repo.FindDepartmentByName(ctx, cfg.BootstrapDept); err == nil {
		return // 已经有了，跳过
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("bootstrap department lookup failed: %v", err)
		return
	}

	head, err := repo.FindUserByUsername(ctx, cfg.BootstrapHead)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		head = &models.User{
			ID:          uuid.NewString(),
			Username:    cfg.BootstrapHead,
			DisplayName: cfg.BootstrapHead,
			IsHead:      true,
		}
		if err := repo.CreateUser(ctx, head); err != nil {
			log.Printf("bootstrap head user failed: %v", err)
			return
		}
	} else if err != nil {
		log.Printf("bootstrap head lookup failed: %v", err)
		return
	}

	dept := &models.Department{
		ID:     uuid.NewString(),
		Name:   cfg.BootstrapDept,
		HeadID: head.ID,
	}
	if err := repo.CreateDepartment(ctx, dept); err != nil {
		log.Printf("bootstrap department failed: %v", err)
		return
	}

	// 负责人也挂进自己的部门
	head.DepartmentID = dept.ID
	head.IsHead = true
	if err := repo.DB.WithContext(ctx).Save(head).Error; err != nil {
		log.Printf("bootstrap head update failed: %v", err)
		return
	}

	log.Printf("[BOOTSTRAP] Created department %q with head %s", dept.Name, head.Username)
}
