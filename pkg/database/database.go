package database

import (
	"fmt"
	"log"

	"prevention_edu_backend/internal/config"
	"prevention_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	logLevel := logger.Info
	if cfg.Server.Mode == "release" {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认不自动迁移，除非通过命令行显式要求
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

// Migrate 建表并写入默认技能标签词表
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseContent{},
		&model.CourseRegistration{},
		&model.ContentProgress{},
		&model.SkillTag{},
	)
	if err != nil {
		return err
	}

	// 默认技能标签（词表为空时写入）
	var tagCount int64
	db.Model(&model.SkillTag{}).Count(&tagCount)
	if tagCount == 0 {
		defaultTags := []model.SkillTag{
			{Code: "awareness", Name: "认知教育", Description: "认识成瘾物质及其危害", Order: 1, Enabled: true},
			{Code: "refusal", Name: "拒绝技巧", Description: "面对诱惑时的拒绝策略", Order: 2, Enabled: true},
			{Code: "communication", Name: "沟通表达", Description: "与家人同伴的有效沟通", Order: 3, Enabled: true},
			{Code: "decision_making", Name: "决策能力", Description: "情境下的独立判断与决策", Order: 4, Enabled: true},
			{Code: "stress_management", Name: "压力管理", Description: "情绪调节与压力应对", Order: 5, Enabled: true},
			{Code: "peer_support", Name: "同伴支持", Description: "互助与求助渠道", Order: 6, Enabled: true},
			{Code: "self_esteem", Name: "自我认同", Description: "建立健康的自我评价", Order: 7, Enabled: true},
			{Code: "healthy_lifestyle", Name: "健康生活", Description: "作息、运动与替代活动", Order: 8, Enabled: true},
		}
		for _, t := range defaultTags {
			db.Create(&t)
		}
	}

	return nil
}
