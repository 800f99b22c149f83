package attendance

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecordStatus string

const (
	Present RecordStatus = "present"
	Absent  RecordStatus = "absent"
	Late    RecordStatus = "late"
	Excused RecordStatus = "excused"
)

type Record struct {
	Student primitive.ObjectID `bson:"student" json:"student"`
	Status  RecordStatus       `bson:"status" json:"status"`
	Remark  string             `bson:"remark,omitempty" json:"remark,omitempty"`
}

// Attendance is the register of one course on one day.
type Attendance struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Course    primitive.ObjectID `bson:"course" json:"course"`
	Date      time.Time          `bson:"date" json:"date"`
	Records   []Record           `bson:"records" json:"records"`
	MarkedBy  primitive.ObjectID `bson:"marked_by" json:"markedBy"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// StudentRecord is one student's view of a register entry.
type StudentRecord struct {
	Course primitive.ObjectID `json:"course"`
	Date   time.Time          `json:"date"`
	Status RecordStatus       `json:"status"`
	Remark string             `json:"remark,omitempty"`
}

type RecordRequest struct {
	Student string `json:"student" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=present absent late excused"`
	Remark  string `json:"remark"`
}

type MarkRequest struct {
	Course  string          `json:"course" validate:"required"`
	Date    string          `json:"date" validate:"required"`
	Records []RecordRequest `json:"records" validate:"required,min=1,dive"`
}
