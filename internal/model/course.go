package model

// Course is a named unit of study. Teacher listings carry the full record,
// student listings carry the enrollment date instead.
type Course struct {
	CourseID         string     `json:"course_id"`
	CourseName       string     `json:"course_name"`
	CourseLevel      string     `json:"course_level,omitempty"`
	CourseObjectives string     `json:"course_objectives,omitempty"`
	OfferedAt        []string   `json:"offered_at,omitempty"`
	StudentsEnrolled int        `json:"students_enrolled,omitempty"`
	EnrolledAt       *Timestamp `json:"enrolled_at,omitempty"`
}

// CreateCourseRequest is the payload for POST /teacher/register_course.
type CreateCourseRequest struct {
	CourseID         string   `json:"course_id" binding:"required"`
	CourseName       string   `json:"course_name" binding:"required"`
	CourseLevel      string   `json:"course_level" binding:"required"`
	CourseObjectives string   `json:"course_objectives"`
	OfferedAt        []string `json:"offered_at"`
}

// EnrollRequest is the payload for enroll and unenroll.
type EnrollRequest struct {
	CourseID string `json:"course_id" binding:"required"`
}
