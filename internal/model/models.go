package model

import (
	"time"
)

// 内容类型
const (
	TypeDrama  = "drama"
	TypeMovie  = "movie"
	TypeSeries = "series"
	TypeAnime  = "anime"
)

// ContentTypes 全部内容类型
var ContentTypes = []string{TypeDrama, TypeMovie, TypeSeries, TypeAnime}

// Genres 全部题材
var Genres = []string{
	"romance", "comedy", "action", "thriller", "horror", "fantasy",
	"drama", "mystery", "slice_of_life", "historical", "crime", "adventure",
}

// Content 内容条目（剧集/电影/动画）
type Content struct {
	ID            int       `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	OriginalTitle string    `json:"original_title" db:"original_title"`
	PosterURL     string    `json:"poster_url" db:"poster_url"`
	BannerURL     string    `json:"banner_url" db:"banner_url"`
	Synopsis      string    `json:"synopsis" db:"synopsis"`
	Year          int       `json:"year" db:"year"`
	Country       string    `json:"country" db:"country"`
	ContentType   string    `json:"content_type" db:"content_type" gorm:"index"`
	Genres        []string  `json:"genres" db:"genres" gorm:"serializer:json"`
	Rating        float64   `json:"rating" db:"rating"`
	Episodes      *int      `json:"episodes,omitempty" db:"episodes"`
	Duration      *int      `json:"duration,omitempty" db:"duration"` // 片长（分钟）
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ContentPage 内容分页结果
type ContentPage struct {
	Contents []*Content `json:"contents"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

// User 用户模型
type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email" gorm:"unique"`
	Username     string    `json:"username" db:"username" gorm:"unique"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
	Role     string
	Token    string // 访问远端接口用的 Bearer Token
}
