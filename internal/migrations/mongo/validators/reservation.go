package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"date",
			"start_time",
			"duration_min",
			"party_size",
			"status",
			"customer_name",
			"customer_email",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"vehicle_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{2}:\d{2}$`,
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  720,
			},

			"party_size": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  64,
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "cancelled"},
			},

			"service_type": bson.M{
				"enum": []string{
					"airport_transfer",
					"corporate_travel",
					"wedding",
					"event_transport",
					"luxury_tour",
				},
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"customer_email": bson.M{
				"bsonType": "string",
			},

			"customer_phone": bson.M{
				"bsonType": "string",
			},

			"version": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
