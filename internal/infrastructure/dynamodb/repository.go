package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"

	"admin-rbac/internal/domain"
)

const (
	entityRole = "ROLE"
	entityUser = "USER"
)

// dynamoAPI is the subset of the DynamoDB client used by the repositories.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *awsv2dynamodb.PutItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *awsv2dynamodb.GetItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *awsv2dynamodb.ScanInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *awsv2dynamodb.DescribeTableInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.DescribeTableOutput, error)
}

type Client struct {
	db        dynamoAPI
	tableName string
}

// NewClient loads the default AWS config for region. A non-empty endpoint
// points the client at DynamoDB Local or another compatible server.
func NewClient(ctx context.Context, region, tableName, endpoint string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	client := awsv2dynamodb.NewFromConfig(cfg, func(o *awsv2dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &Client{db: client, tableName: tableName}, nil
}

// Ping checks that the table is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return xray.Capture(ctx, "DynamoDB.DescribeTable", func(ctx context.Context) error {
		_, err := c.db.DescribeTable(ctx, &awsv2dynamodb.DescribeTableInput{TableName: aws.String(c.tableName)})
		return unavailable(err)
	})
}

func rolePK(name string) string    { return "ROLE#" + name }
func roleMetaSK() string           { return "META" }
func userPK(email string) string   { return "USER#" + emailKey(email) }
func userProfileSK() string        { return "PROFILE" }
func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

type roleRecord struct {
	PK          string              `dynamodbav:"PK"`
	SK          string              `dynamodbav:"SK"`
	EntityType  string              `dynamodbav:"EntityType"`
	ID          string              `dynamodbav:"ID"`
	Name        string              `dynamodbav:"Name"`
	Kind        string              `dynamodbav:"Kind"`
	Description string              `dynamodbav:"Description"`
	Permissions map[string][]string `dynamodbav:"Permissions"`
	Status      string              `dynamodbav:"Status"`
	UserCount   int                 `dynamodbav:"UserCount"`
	IsDeleted   bool                `dynamodbav:"IsDeleted"`
	CreatedAt   string              `dynamodbav:"CreatedAt"`
	UpdatedAt   string              `dynamodbav:"UpdatedAt"`
}

func newRoleRecord(role domain.Role) roleRecord {
	return roleRecord{
		PK:          rolePK(role.Name),
		SK:          roleMetaSK(),
		EntityType:  entityRole,
		ID:          role.ID,
		Name:        role.Name,
		Kind:        string(role.Kind),
		Description: role.Description,
		Permissions: role.Permissions.Raw(),
		Status:      string(role.Status),
		UserCount:   role.UserCount,
		IsDeleted:   role.IsDeleted,
		CreatedAt:   formatTime(role.CreatedAt),
		UpdatedAt:   formatTime(role.UpdatedAt),
	}
}

// toDomain keeps records whose matrix names unknown resources or actions;
// the maintenance jobs rewrite them.
func (r roleRecord) toDomain() domain.Role {
	perms, drift := domain.SalvageMatrix(r.Permissions)
	return domain.Role{
		ID:               r.ID,
		Name:             r.Name,
		Kind:             domain.RoleKind(r.Kind),
		Description:      r.Description,
		Permissions:      perms,
		Status:           domain.RoleStatus(r.Status),
		UserCount:        r.UserCount,
		IsDeleted:        r.IsDeleted,
		CreatedAt:        parseTime(r.CreatedAt),
		UpdatedAt:        parseTime(r.UpdatedAt),
		PermissionsDrift: drift,
	}
}

type userRecord struct {
	PK                 string              `dynamodbav:"PK"`
	SK                 string              `dynamodbav:"SK"`
	EntityType         string              `dynamodbav:"EntityType"`
	ID                 string              `dynamodbav:"ID"`
	Email              string              `dynamodbav:"Email"`
	Name               string              `dynamodbav:"Name"`
	PasswordHash       string              `dynamodbav:"PasswordHash"`
	Role               string              `dynamodbav:"Role"`
	PermissionSnapshot map[string][]string `dynamodbav:"PermissionSnapshot"`
	Status             string              `dynamodbav:"Status"`
	IsDeleted          bool                `dynamodbav:"IsDeleted"`
	CreatedAt          string              `dynamodbav:"CreatedAt"`
	UpdatedAt          string              `dynamodbav:"UpdatedAt"`
}

func newUserRecord(user domain.User) userRecord {
	return userRecord{
		PK:                 userPK(user.Email),
		SK:                 userProfileSK(),
		EntityType:         entityUser,
		ID:                 user.ID,
		Email:              user.Email,
		Name:               user.Name,
		PasswordHash:       user.PasswordHash,
		Role:               user.Role,
		PermissionSnapshot: user.PermissionSnapshot.Raw(),
		Status:             string(user.Status),
		IsDeleted:          user.IsDeleted,
		CreatedAt:          formatTime(user.CreatedAt),
		UpdatedAt:          formatTime(user.UpdatedAt),
	}
}

func (u userRecord) toDomain() domain.User {
	snapshot, drift := domain.SalvageMatrix(u.PermissionSnapshot)
	return domain.User{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		PermissionSnapshot: snapshot,
		Status:             domain.UserStatus(u.Status),
		IsDeleted:          u.IsDeleted,
		CreatedAt:          parseTime(u.CreatedAt),
		UpdatedAt:          parseTime(u.UpdatedAt),
		SnapshotDrift:      drift,
	}
}

type RoleRepository struct{ client *Client }

type UserRepository struct{ client *Client }

func NewRoleRepository(client *Client) *RoleRepository {
	return &RoleRepository{client: client}
}

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// putConditional writes item under cond and reports whether the condition
// held.
func (c *Client) putConditional(ctx context.Context, segment string, record any, cond string) (bool, error) {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return false, err
	}
	written := true
	err = xray.Capture(ctx, segment, func(ctx context.Context) error {
		_, err := c.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(c.tableName),
			Item:                av,
			ConditionExpression: aws.String(cond),
		})
		if isConditionalCheckFailure(err) {
			written = false
			return nil
		}
		return unavailable(err)
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func (c *Client) get(ctx context.Context, segment, pk, sk string) (map[string]awsv2types.AttributeValue, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		var e error
		out, e = c.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(c.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: pk},
				"SK": &awsv2types.AttributeValueMemberS{Value: sk},
			},
			ConsistentRead: aws.Bool(true),
		})
		return unavailable(e)
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	return out.Item, nil
}

// scan pages through every item of entityType that is not soft-deleted,
// narrowed further by extraFilter when set.
func (c *Client) scan(ctx context.Context, segment, entityType, extraFilter string, names map[string]string, values map[string]awsv2types.AttributeValue) ([]map[string]awsv2types.AttributeValue, error) {
	filter := "EntityType = :et AND (attribute_not_exists(IsDeleted) OR IsDeleted = :false)"
	if extraFilter != "" {
		filter += " AND " + extraFilter
	}
	exprValues := map[string]awsv2types.AttributeValue{
		":et":    &awsv2types.AttributeValueMemberS{Value: entityType},
		":false": &awsv2types.AttributeValueMemberBOOL{Value: false},
	}
	for k, v := range values {
		exprValues[k] = v
	}
	input := &awsv2dynamodb.ScanInput{
		TableName:                 aws.String(c.tableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: exprValues,
		ConsistentRead:            aws.Bool(true),
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	var items []map[string]awsv2types.AttributeValue
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		paginator := awsv2dynamodb.NewScanPaginator(c.db, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return unavailable(err)
			}
			items = append(items, page.Items...)
		}
		return nil
	})
	return items, err
}

func (r *RoleRepository) CreateIfAbsent(ctx context.Context, role domain.Role) (bool, error) {
	if role.Name == "" {
		return false, domain.ErrInvalidInput
	}
	return r.client.putConditional(ctx, "DynamoDB.PutRole", newRoleRecord(role),
		"attribute_not_exists(PK) AND attribute_not_exists(SK)")
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (domain.Role, error) {
	item, err := r.client.get(ctx, "DynamoDB.GetRole", rolePK(name), roleMetaSK())
	if err != nil {
		return domain.Role{}, err
	}
	var rec roleRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return domain.Role{}, err
	}
	return rec.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	items, err := r.client.scan(ctx, "DynamoDB.ScanRoles", entityRole, "", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRoles(items)
}

func (r *RoleRepository) Update(ctx context.Context, role domain.Role) error {
	ok, err := r.client.putConditional(ctx, "DynamoDB.UpdateRole", newRoleRecord(role), "attribute_exists(PK)")
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) CountSystem(ctx context.Context) (int, error) {
	items, err := r.client.scan(ctx, "DynamoDB.ScanSystemRoles", entityRole, "#kind = :kind",
		map[string]string{"#kind": "Kind"},
		map[string]awsv2types.AttributeValue{
			":kind": &awsv2types.AttributeValueMemberS{Value: string(domain.RoleKindSystem)},
		})
	if err != nil {
		return 0, err
	}
	roles, err := decodeRoles(items)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, role := range roles {
		if role.Kind == domain.RoleKindSystem {
			n++
		}
	}
	return n, nil
}

// decodeRoles drops records the filter should already have excluded.
func decodeRoles(items []map[string]awsv2types.AttributeValue) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(items))
	for _, item := range items {
		var rec roleRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, err
		}
		if rec.EntityType != entityRole || rec.IsDeleted {
			continue
		}
		roles = append(roles, rec.toDomain())
	}
	return roles, nil
}

func (r *UserRepository) CreateIfAbsent(ctx context.Context, user domain.User) (bool, error) {
	if emailKey(user.Email) == "" {
		return false, domain.ErrInvalidInput
	}
	return r.client.putConditional(ctx, "DynamoDB.PutUser", newUserRecord(user),
		"attribute_not_exists(PK) AND attribute_not_exists(SK)")
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	item, err := r.client.get(ctx, "DynamoDB.GetUser", userPK(email), userProfileSK())
	if err != nil {
		return domain.User{}, err
	}
	var rec userRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return domain.User{}, err
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	items, err := r.client.scan(ctx, "DynamoDB.ScanUsers", entityUser, "", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUsers(items)
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	ok, err := r.client.putConditional(ctx, "DynamoDB.UpdateUser", newUserRecord(user), "attribute_exists(PK)")
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountActiveByRoles(ctx context.Context, roles []string) (int, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	values := map[string]awsv2types.AttributeValue{
		":active": &awsv2types.AttributeValueMemberS{Value: string(domain.UserStatusActive)},
	}
	placeholders := make([]string, 0, len(roles))
	for i, role := range roles {
		key := fmt.Sprintf(":r%d", i)
		placeholders = append(placeholders, key)
		values[key] = &awsv2types.AttributeValueMemberS{Value: role}
	}
	filter := "#status = :active AND #role IN (" + strings.Join(placeholders, ", ") + ")"
	names := map[string]string{"#status": "Status", "#role": "Role"}

	items, err := r.client.scan(ctx, "DynamoDB.CountUsersByRole", entityUser, filter, names, values)
	if err != nil {
		return 0, err
	}
	users, err := decodeUsers(items)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, user := range users {
		if user.Status != domain.UserStatusActive {
			continue
		}
		for _, role := range roles {
			if user.Role == role {
				n++
				break
			}
		}
	}
	return n, nil
}

func decodeUsers(items []map[string]awsv2types.AttributeValue) ([]domain.User, error) {
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		var rec userRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, err
		}
		if rec.EntityType != entityUser || rec.IsDeleted {
			continue
		}
		users = append(users, rec.toDomain())
	}
	return users, nil
}
