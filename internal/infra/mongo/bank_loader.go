package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trivia-chat-service/internal/domain"
)

const questionsCollection = "questions"

// questionDoc mirrors a sheet row; field names match the sheet headers.
type questionDoc struct {
	ID       string `bson:"_id"`
	Prompt   string `bson:"pregunta"`
	Correct  string `bson:"respuesta_correcta"`
	Wrong1   string `bson:"opcion_incorrecta_1"`
	Wrong2   string `bson:"opcion_incorrecta_2"`
	Wrong3   string `bson:"opcion_incorrecta_3"`
	Category string `bson:"categoria,omitempty"`
}

func (d questionDoc) question() domain.Question {
	return domain.NewBankQuestion(d.ID, d.Prompt, d.Correct, [3]string{d.Wrong1, d.Wrong2, d.Wrong3}, d.Category)
}

func docFor(q domain.Question) questionDoc {
	return questionDoc{
		ID:       q.ID,
		Prompt:   q.Prompt,
		Correct:  q.Options[0],
		Wrong1:   q.Options[1],
		Wrong2:   q.Options[2],
		Wrong3:   q.Options[3],
		Category: q.Category,
	}
}

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// BankLoader loads the question bank from a document collection.
type BankLoader struct {
	collection *mongo.Collection
}

func NewBankLoader(client *mongo.Client, database string) *BankLoader {
	return &BankLoader{collection: client.Database(database).Collection(questionsCollection)}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	cursor, err := l.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	var docs []questionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	out := make([]domain.Question, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.question())
	}
	return out, nil
}

// Import upserts questions by ID. The correct answer must sit at index 0.
func (l *BankLoader) Import(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if q.Correct != 0 {
			return 0, fmt.Errorf("%w: question %s has its correct answer at %s", domain.ErrSchema, q.ID, q.CorrectLetter())
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": q.ID}).
			SetReplacement(docFor(q)).
			SetUpsert(true))
	}
	res, err := l.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("import questions: %w", err)
	}
	return int(res.UpsertedCount + res.MatchedCount), nil
}
