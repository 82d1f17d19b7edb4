package models

// Email 事故通知邮件草稿
type Email struct {
	// To 收件人，逗号分隔，未知邮箱时填姓名或职位
	To      string `json:"to" validate:"required"`
	Cc      string `json:"cc,omitempty"`
	Bcc     string `json:"bcc,omitempty"`
	Subject string `json:"subject" validate:"required"`
	// Body 邮件正文，markdown格式
	Body string `json:"body" validate:"required"`
}

// IncidentReport 结构化事故报告
type IncidentReport struct {
	DateTimeOfIncident         string `json:"date_time_of_incident,omitempty"`
	ServiceUserName            string `json:"service_user_name" validate:"required"`
	LocationOfIncident         string `json:"location_of_incident,omitempty"`
	TypeOfIncident             string `json:"type_of_incident" validate:"required"`
	DescriptionOfIncident      string `json:"description_of_incident" validate:"required"`
	ImmediateActionsTaken      string `json:"immediate_actions_taken,omitempty"`
	FirstAidAdministered       bool   `json:"first_aid_administered"`
	EmergencyServicesContacted bool   `json:"emergency_services_contacted"`
	WhoWasNotified             string `json:"who_was_notified,omitempty"`
	Witnesses                  string `json:"witnesses,omitempty"`
	AgreedNextSteps            string `json:"agreed_next_steps,omitempty"`
	RiskAssessmentNeeded       bool   `json:"risk_assessment_needed"`
	RiskAssessmentType         string `json:"risk_assessment_type,omitempty"`
}

// PolicyProcessingResult 生成步骤的结构化输出
type PolicyProcessingResult struct {
	// PolicyIDs 是代理在填写报告和邮件时引用的情景行ID
	PolicyIDs []string       `json:"policy_ids"`
	Emails    []Email        `json:"emails" validate:"dive"`
	Report    IncidentReport `json:"report" validate:"required"`
	// Reasoning 说明输出与策略的对应关系，带引文的markdown列表
	Reasoning []string `json:"reasoning"`
}

// PolicyProcessingResultWithFullPolicy 在生成结果上附加引用策略的全文
type PolicyProcessingResultWithFullPolicy struct {
	PolicyProcessingResult
	FullPolicyTexts []string `json:"full_policy_texts"`
}
