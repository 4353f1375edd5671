package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingRecordValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"requester",
			"slots",
			"confirmed_at",
			"recorded_at",
		},
		"additionalProperties": false,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"requester": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"slots": bson.M{
				"bsonType":    "array",
				"minItems":    1,
				"uniqueItems": true,
				"items": bson.M{
					"bsonType": []string{"int", "long"},
					"minimum":  0,
				},
			},

			"confirmed_at": bson.M{
				"bsonType": "date",
			},

			"recorded_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
